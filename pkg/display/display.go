// Package display maps order statuses to presentation attributes so clients
// can render them without switching on the enum.
package display

import "gotur/pkg/order"

// Attributes describe how a status is shown.
type Attributes struct {
	Status order.Status `json:"status"`
	Label  string       `json:"label"`
	Color  string       `json:"color"`
	Icon   string       `json:"icon"`
}

var statusTable = map[order.Status]Attributes{
	order.StatusPending:   {Status: order.StatusPending, Label: "Hazırlanıyor", Color: "orange", Icon: "clock"},
	order.StatusOnTheWay:  {Status: order.StatusOnTheWay, Label: "Yolda", Color: "blue", Icon: "bicycle"},
	order.StatusDelivered: {Status: order.StatusDelivered, Label: "Teslim Edildi", Color: "green", Icon: "checkmark.circle"},
	order.StatusCancelled: {Status: order.StatusCancelled, Label: "İptal Edildi", Color: "red", Icon: "xmark.circle"},
}

// ForStatus returns the attributes of s. Unknown statuses fall back to a gray
// entry labelled with the raw value.
func ForStatus(s order.Status) Attributes {
	if a, ok := statusTable[s]; ok {
		return a
	}
	return Attributes{Status: s, Label: string(s), Color: "gray", Icon: "questionmark.circle"}
}

// All returns the attributes of every known status in lifecycle order.
func All() []Attributes {
	out := make([]Attributes, 0, len(order.Statuses))
	for _, s := range order.Statuses {
		out = append(out, statusTable[s])
	}
	return out
}
