package task

// AlertItem is the slim item shape carried inside an alert email.
type AlertItem struct {
	Name   string `json:"name"`
	Image  string `json:"image"`
	Price  int    `json:"price,omitempty"`
	Type   string `json:"type"`
	Rarity string `json:"rarity"`
}

// ItemAlertTask asks a worker to email one user about wishlisted items that
// just returned to the shop.
type ItemAlertTask struct {
	Recipient string      `json:"recipient"`
	Items     []AlertItem `json:"items"`
}

func (t *ItemAlertTask) TaskType() string {
	return "ItemAlertTask"
}

func (t *ItemAlertTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
