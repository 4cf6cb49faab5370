// Package account содержит учётные записи студентов и сотрудников.
// Общая часть (логин, пароль, тип) вынесена в Credential и встраивается в обе роли.
package account

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/servicehours/hours-hub/internal/domain/accolade"
	"github.com/servicehours/hours-hub/internal/domain/ledger"
	"github.com/servicehours/hours-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// UserType - роль учётной записи.
type UserType string

const (
	// UserTypeStudent - студент, которому начисляются часы.
	UserTypeStudent UserType = "student"
	// UserTypeStaff - сотрудник, который записывает и подтверждает часы.
	UserTypeStaff UserType = "staff"
)

// IsValid проверяет, что тип известен.
func (t UserType) IsValid() bool {
	return t == UserTypeStudent || t == UserTypeStaff
}

// ══════════════════════════════════════════════════════════════════════════════
// CREDENTIAL
// ══════════════════════════════════════════════════════════════════════════════

// HashCost - стоимость bcrypt для новых паролей.
var HashCost = bcrypt.DefaultCost

// Credential - общая часть учётной записи.
type Credential struct {
	ID           string
	Username     string
	PasswordHash string
	UserType     UserType
	CreatedAt    time.Time
}

// NewCredential создаёт учётные данные с хешированным паролем.
func NewCredential(username, password string, userType UserType, now time.Time) (Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return Credential{}, shared.ErrInvalidAccount
	}
	if password == "" {
		return Credential{}, shared.ErrEmptyPassword
	}
	if !userType.IsValid() {
		return Credential{}, shared.ErrInvalidUserType
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), HashCost)
	if err != nil {
		return Credential{}, shared.WrapError("account", "NewCredential", shared.ErrValidation, "cannot hash password", err)
	}

	return Credential{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: string(hash),
		UserType:     userType,
		CreatedAt:    now.UTC(),
	}, nil
}

// CheckPassword сверяет пароль с хешем.
func (c Credential) CheckPassword(password string) error {
	err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return shared.ErrPasswordMismatch
	}
	if err != nil {
		return shared.WrapError("account", "CheckPassword", shared.ErrValidation, "stored hash is invalid", err)
	}
	return nil
}

func (c Credential) baseMap() map[string]any {
	return map[string]any{
		"id":        c.ID,
		"username":  c.Username,
		"user_type": string(c.UserType),
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT
// ══════════════════════════════════════════════════════════════════════════════

// Student - студент, которому начисляются часы.
type Student struct {
	Credential

	Name  string
	Email string

	// TotalHours - кешированная сумма подтверждённых часов.
	// Меняется только при подтверждении и при пересчёте рейтинга.
	TotalHours int

	// LoggedHours и Accolades заполняются слоем запросов для сериализации.
	LoggedHours []*ledger.Entry
	Accolades   []*accolade.Accolade
}

// NewStudent создаёт студента с нулевой суммой часов.
func NewStudent(cred Credential, name, email string) (*Student, error) {
	if cred.UserType != UserTypeStudent {
		return nil, shared.ErrInvalidUserType
	}
	return &Student{
		Credential: cred,
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
	}, nil
}

// ToMap возвращает плоское представление студента вместе с записями и наградами.
func (s *Student) ToMap() map[string]any {
	data := s.baseMap()
	data["studentName"] = s.Name
	data["studentEmail"] = s.Email
	data["totalHours"] = s.TotalHours
	data["loggedHours"] = ledger.MapAll(s.LoggedHours)
	data["accolades"] = accolade.MapAll(s.Accolades)
	return data
}

// ══════════════════════════════════════════════════════════════════════════════
// STAFF
// ══════════════════════════════════════════════════════════════════════════════

// Staff - сотрудник, записывающий и подтверждающий часы.
type Staff struct {
	Credential

	Name  string
	Email string

	// LoggedHours - записи, созданные сотрудником. Заполняется слоем запросов.
	LoggedHours []*ledger.Entry
}

// NewStaff создаёт сотрудника.
func NewStaff(cred Credential, name, email string) (*Staff, error) {
	if cred.UserType != UserTypeStaff {
		return nil, shared.ErrInvalidUserType
	}
	return &Staff{
		Credential: cred,
		Name:       strings.TrimSpace(name),
		Email:      strings.TrimSpace(email),
	}, nil
}

// ToMap возвращает плоское представление сотрудника.
// В hoursConfirmed попадают только подтверждённые записи.
func (s *Staff) ToMap() map[string]any {
	data := s.baseMap()
	data["staffName"] = s.Name
	data["staffEmail"] = s.Email
	data["hoursConfirmed"] = ledger.MapAll(ledger.FilterConfirmed(s.LoggedHours))
	return data
}
