// Package namespace переводит плоский блоб конфигурации (ключи вида "commissions_cashIn")
// в объект одного экрана и обратно.
package namespace

import "strings"

// Separator отделяет имя пространства от имени поля в ключе блоба.
const Separator = "_"

// Пространства имён экранов админки.
const (
	Commissions     = "commissions"
	Locale          = "locale"
	OperatorInfo    = "operatorInfo"
	TermsConditions = "termsConditions"
)

func prefix(ns string) string {
	return ns + Separator
}

// From возвращает поля блоба из пространства ns без префикса.
// Если подходящих ключей нет (или blob == nil), возвращается пустая, но не nil, карта.
func From(ns string, blob map[string]any) map[string]any {
	p := prefix(ns)
	out := make(map[string]any)
	for k, v := range blob {
		if strings.HasPrefix(k, p) {
			out[strings.TrimPrefix(k, p)] = v
		}
	}
	return out
}

// To возвращает новую плоскую карту, где каждый ключ obj получил префикс ns.
// Результат можно мержить в общий блоб.
func To(ns string, obj map[string]any) map[string]any {
	p := prefix(ns)
	out := make(map[string]any, len(obj))
	for k, v := range obj {
		out[p+k] = v
	}
	return out
}
