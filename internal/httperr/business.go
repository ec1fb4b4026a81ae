package httperr

import "errors"

// Códigos de erro de negócio expostos ao chamador.
const (
	CodeInvalidDate       = "invalid_date"
	CodeOutOfHours        = "out_of_hours"
	CodeInvalidDuration   = "invalid_duration"
	CodeInvalidService    = "invalid_service"
	CodeInvalidResource   = "invalid_resource"
	CodeSlotConflict      = "slot_conflict"
	CodeFullyBooked       = "fully_booked"
	CodeInvalidTransition = "invalid_transition"
	CodeAlreadyWaiting    = "already_waiting"
	CodeTimeout           = "timeout"
	CodeUnauthorized      = "unauthorized"
	CodeNotFound          = "not_found"
	CodeInvalidRequest    = "invalid_request"
)

var defaultMessages = map[string]string{
	CodeInvalidDate:       "Data indisponível para agendamento.",
	CodeOutOfHours:        "Horário fora do expediente.",
	CodeInvalidDuration:   "Duração do serviço inválida.",
	CodeInvalidService:    "Serviço inválido ou inativo.",
	CodeInvalidResource:   "Barbeiro inválido ou inativo.",
	CodeSlotConflict:      "Este barbeiro já está ocupado neste horário.",
	CodeFullyBooked:       "Nenhum barbeiro disponível neste horário.",
	CodeInvalidTransition: "Mudança de status não permitida.",
	CodeAlreadyWaiting:    "Você já está na lista de espera para este horário.",
	CodeTimeout:           "Agenda ocupada, tente novamente.",
	CodeUnauthorized:      "Operação não permitida.",
	CodeNotFound:          "Registro não encontrado.",
	CodeInvalidRequest:    "Dados inválidos.",
}

type BusinessError struct {
	Code    string
	Message string
}

func (e BusinessError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code, Message: defaultMessages[code]}
}

// ErrBusinessMsg troca a mensagem padrão por uma mais específica.
func ErrBusinessMsg(code, message string) error {
	return BusinessError{Code: code, Message: message}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

func AsBusiness(err error) (BusinessError, bool) {
	var be BusinessError
	if errors.As(err, &be) {
		return be, true
	}
	return BusinessError{}, false
}
