package render

import "time"

// DefaultToastDuration is how long an acknowledgement stays visible
const DefaultToastDuration = 3 * time.Second

// Toast is a transient acknowledgement
type Toast struct {
	Text    string
	Expires time.Time

	// Seq distinguishes toasts so an older expiry does not hide a newer one
	Seq int
}

// Toaster hands out toasts with increasing sequence numbers
type Toaster struct {
	Duration time.Duration

	current Toast
	seq     int
}

// Show replaces the current toast and returns it
func (t *Toaster) Show(text string, now time.Time) Toast {
	d := t.Duration
	if d <= 0 {
		d = DefaultToastDuration
	}
	t.seq++
	t.current = Toast{Text: text, Expires: now.Add(d), Seq: t.seq}
	return t.current
}

// Expire hides the toast with sequence seq if it is still the current one
func (t *Toaster) Expire(seq int) {
	if t.current.Seq == seq {
		t.current = Toast{}
	}
}

// Visible returns the current toast text, empty once expired
func (t *Toaster) Visible(now time.Time) string {
	if t.current.Text == "" || !now.Before(t.current.Expires) {
		return ""
	}
	return t.current.Text
}
