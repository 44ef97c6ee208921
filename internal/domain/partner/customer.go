package partner

import (
	"regexp"
	"strings"

	"github.com/erp/backoffice/internal/domain/shared"
)

var (
	phonePattern = regexp.MustCompile(`^[\d\s\-\(\)\+]+$`)
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
)

// Customer is the buyer referenced by orders and sales
type Customer struct {
	shared.BaseAggregateRoot
	Name    string
	Phone   string
	Email   string
	Address string
	Notes   string
}

// Snapshot is the contact information copied onto orders and sales when they
// are created. It is never refreshed implicitly.
type Snapshot struct {
	Name  string
	Phone string
	Email string
}

// NewCustomer creates a new active customer
func NewCustomer(name, phone, email string) (*Customer, error) {
	c := &Customer{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.setContact(name, phone, email); err != nil {
		return nil, err
	}
	return c, nil
}

// Update updates the customer's contact details
func (c *Customer) Update(name, phone, email, address, notes string) error {
	if err := c.setContact(name, phone, email); err != nil {
		return err
	}
	c.Address = strings.TrimSpace(address)
	c.Notes = notes
	c.Touch()
	c.IncrementVersion()
	return nil
}

// SetAddress sets the postal address
func (c *Customer) SetAddress(address string) {
	c.Address = strings.TrimSpace(address)
	c.Touch()
}

// Snapshot returns the cached contact fields for an order or sale
func (c *Customer) Snapshot() Snapshot {
	return Snapshot{Name: c.Name, Phone: c.Phone, Email: c.Email}
}

func (c *Customer) setContact(name, phone, email string) error {
	name = strings.TrimSpace(name)
	phone = strings.TrimSpace(phone)
	email = strings.TrimSpace(strings.ToLower(email))

	if err := validateCustomerName(name); err != nil {
		return err
	}
	if err := validatePhone(phone); err != nil {
		return err
	}
	if email != "" {
		if err := validateEmail(email); err != nil {
			return err
		}
	}

	c.Name = name
	c.Phone = phone
	c.Email = email
	return nil
}

func validateCustomerName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty").WithField("name", "required")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Customer name cannot exceed 200 characters").WithField("name", "too long")
	}
	return nil
}

func validatePhone(phone string) error {
	if phone == "" {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot be empty").WithField("phone", "required")
	}
	if len(phone) > 30 {
		return shared.NewDomainError("INVALID_PHONE", "Phone number cannot exceed 30 characters").WithField("phone", "too long")
	}
	if !phonePattern.MatchString(phone) {
		return shared.NewDomainError("INVALID_PHONE", "Invalid phone number format").WithField("phone", "invalid format")
	}
	return nil
}

func validateEmail(email string) error {
	if len(email) > 200 {
		return shared.NewDomainError("INVALID_EMAIL", "Email cannot exceed 200 characters").WithField("email", "too long")
	}
	if !emailPattern.MatchString(email) {
		return shared.NewDomainError("INVALID_EMAIL", "Invalid email format").WithField("email", "invalid format")
	}
	return nil
}
