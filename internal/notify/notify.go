// Package notify entrega o aviso de vaga liberada para quem está na fila.
package notify

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

const (
	fallbackClient = "Cliente"
	fallbackBarber = "qualquer barbeiro disponível"
)

// SlotOpened é o conteúdo do aviso.
type SlotOpened struct {
	EntryID        uint   `json:"entry_id"`
	BarbershopName string `json:"barbershop_name"`
	ClientName     string `json:"client_name"`
	Email          string `json:"email"`
	ServiceName    string `json:"service_name"`
	BarberName     string `json:"barber_name"`
	Date           string `json:"date"`
	StartTime      string `json:"start_time"`
	BookingURL     string `json:"booking_url"`
}

// Dispatcher aceita um aviso para entrega. Erro significa que o aviso não
// foi aceito e a entrada deve continuar ativa.
type Dispatcher interface {
	Send(ctx context.Context, msg SlotOpened) error
}

// Subject e Body montam o e-mail; nomes vazios caem nos genéricos.
func Subject(msg SlotOpened) string {
	return fmt.Sprintf("Vaga liberada em %s às %s", msg.Date, msg.StartTime)
}

var bodyTmpl = template.Must(template.New("slot_opened").Parse(
	`<p>Olá, {{.Client}}!</p>` +
		`<p>Abriu um horário para <strong>{{.Service}}</strong> com {{.Barber}} em {{.Date}} às {{.StartTime}}` +
		`{{if .Shop}} na {{.Shop}}{{end}}.</p>` +
		`{{if .URL}}<p><a href="{{.URL}}">Reservar agora</a></p>{{end}}` +
		`<p>A vaga é de quem reservar primeiro.</p>`,
))

// Body escapa todo campo vindo de cadastro; links fora de http(s) são
// neutralizados pelo template.
func Body(msg SlotOpened) string {
	client := strings.TrimSpace(msg.ClientName)
	if client == "" {
		client = fallbackClient
	}
	barber := strings.TrimSpace(msg.BarberName)
	if barber == "" {
		barber = fallbackBarber
	}

	var b strings.Builder
	err := bodyTmpl.Execute(&b, struct {
		Client, Service, Barber, Date, StartTime, Shop, URL string
	}{
		Client:    client,
		Service:   msg.ServiceName,
		Barber:    barber,
		Date:      msg.Date,
		StartTime: msg.StartTime,
		Shop:      msg.BarbershopName,
		URL:       msg.BookingURL,
	})
	if err != nil {
		// só strings; não deve acontecer
		return template.HTMLEscapeString(fmt.Sprintf("Vaga liberada em %s às %s.", msg.Date, msg.StartTime))
	}
	return b.String()
}
