package models

// User представляет учётную запись платформы: администратора, студента или преподавателя.
// Имена JSON-полей зафиксированы контрактом бэкенда (французские ключи).
type User struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"nom" db:"nom"`
	Email      string `json:"email" db:"email"`
	Password   string `json:"passwd,omitempty" db:"passwd"` // присутствует только в create/update
	Role       string `json:"role,omitempty" db:"role"`
	Type       string `json:"type,omitempty" db:"type"`
	Address    string `json:"adresse,omitempty" db:"adresse"`
	NationalID string `json:"num_CIN,omitempty" db:"num_cin"`
}

// Credentials — тело запроса /auth/login. Бэкенд ожидает именно
// ключи "mail" и "mot de passe".
type Credentials struct {
	Email    string `json:"mail"`
	Password string `json:"mot de passe"`
}
