package models

import "time"

// Vendor - внешний сервис, к которому владелец привязывает ключи
type Vendor string

const (
	VendorBinance     Vendor = "binance"
	VendorThreeCommas Vendor = "threecommas"
)

// Valid проверяет, что вендор поддерживается
func (v Vendor) Valid() bool {
	return v == VendorBinance || v == VendorThreeCommas
}

func (v Vendor) String() string { return string(v) }

// Owner - внешний профиль пользователя (id из Memberstack)
//
// Создаётся при первом успешном подключении любого вендора.
type Owner struct {
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Credential - ключи владельца для одного вендора
//
// APIKey и APISecret хранятся в зашифрованном виде (base64 AES-GCM),
// nil означает что вендор отключён. В JSON не попадают никогда.
type Credential struct {
	OwnerID   string    `json:"ownerId" db:"owner_id"`
	Vendor    Vendor    `json:"vendor" db:"vendor"`
	APIKey    *string   `json:"-" db:"api_key"`
	APISecret *string   `json:"-" db:"api_secret"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Connected - true только если обе части ключа присутствуют
func (c *Credential) Connected() bool {
	return c != nil && c.APIKey != nil && c.APISecret != nil
}

// APIKeys - расшифрованная пара ключей
//
// Живёт только в пределах одного запроса, не логируется и не сериализуется.
type APIKeys struct {
	APIKey    string `json:"-"`
	APISecret string `json:"-"`
}
