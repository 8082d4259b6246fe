package task

// WelcomeEmailTask asks a worker to send the post-subscribe welcome email.
type WelcomeEmailTask struct {
	Recipient string `json:"recipient"`
}

func (t *WelcomeEmailTask) TaskType() string {
	return "WelcomeEmailTask"
}

func (t *WelcomeEmailTask) TaskValue() ([]byte, error) {
	return DefaultTaskValue(t)
}
