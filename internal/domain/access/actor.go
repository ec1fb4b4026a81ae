// Package access descreve quem está chamando uma operação de agenda.
package access

type Role string

const (
	RoleAdmin    Role = "admin"
	RoleOwner    Role = "owner"
	RoleBarber   Role = "barber"
	RoleCustomer Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOwner, RoleBarber, RoleCustomer:
		return true
	}
	return false
}

// Actor vem do token JWT. Owner é tratado como admin da barbearia.
type Actor struct {
	UserID       uint
	BarbershopID uint
	Role         Role
}

func (a Actor) IsAdmin() bool    { return a.Role == RoleAdmin || a.Role == RoleOwner }
func (a Actor) IsBarber() bool   { return a.Role == RoleBarber }
func (a Actor) IsCustomer() bool { return a.Role == RoleCustomer }

// Staff cobre quem atende do lado de dentro do balcão.
func (a Actor) IsStaff() bool { return a.IsAdmin() || a.IsBarber() }

// System é usado por jobs internos (worker, seed).
func System(barbershopID uint) Actor {
	return Actor{BarbershopID: barbershopID, Role: RoleAdmin}
}
