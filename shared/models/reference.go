package models

// Специальные значения для переопределений комиссий.
const (
	AllMachinesDeviceID = "ALL_MACHINES"
	AllCoinsCode        = "ALL_COINS"
)

// CryptoCurrency - поддерживаемая криптовалюта.
type CryptoCurrency struct {
	Code    string `json:"code"`
	Display string `json:"display"`
}

// Machine - банкомат сети оператора.
type Machine struct {
	Name     string `json:"name" db:"name"`
	DeviceID string `json:"deviceId" db:"device_id"`
}

// SupportedCryptoCurrencies возвращает статический список поддерживаемых монет.
func SupportedCryptoCurrencies() []CryptoCurrency {
	return []CryptoCurrency{
		{Code: "BTC", Display: "Bitcoin"},
		{Code: "ETH", Display: "Ethereum"},
		{Code: "LTC", Display: "Litecoin"},
		{Code: "DASH", Display: "Dash"},
		{Code: "ZEC", Display: "Zcash"},
		{Code: "BCH", Display: "Bitcoin Cash"},
		{Code: "XMR", Display: "Monero"},
		{Code: "USDT", Display: "Tether"},
	}
}

// IsSupportedCryptoCode проверяет код монеты по статическому списку.
func IsSupportedCryptoCode(code string) bool {
	for _, c := range SupportedCryptoCurrencies() {
		if c.Code == code {
			return true
		}
	}
	return false
}
