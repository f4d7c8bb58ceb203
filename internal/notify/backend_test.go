package notify

// mockBackend records notifications instead of showing them.
type mockBackend struct {
	err  error
	sent []Notification
}

// Send implements Backend.
func (m *mockBackend) Send(n Notification) error {
	m.sent = append(m.sent, n)
	return m.err
}
