package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// Form parsers for the Twilio webhook payloads we consume. Twilio posts
// application/x-www-form-urlencoded; only the fields the receptionist flow
// needs are captured.

type VoiceForm struct {
	CallSid string
	From    string
	To      string
	Digits  string
}

func ParseVoiceForm(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	return VoiceForm{
		CallSid: r.PostFormValue("CallSid"),
		From:    normalizePhone(r.PostFormValue("From")),
		To:      normalizePhone(r.PostFormValue("To")),
		Digits:  strings.TrimSpace(r.PostFormValue("Digits")),
	}, nil
}

type StatusForm struct {
	CallSid         string
	CallStatus      string
	DurationSeconds int
}

func ParseStatusForm(r *http.Request) (StatusForm, error) {
	if err := r.ParseForm(); err != nil {
		return StatusForm{}, err
	}
	f := StatusForm{
		CallSid:    r.PostFormValue("CallSid"),
		CallStatus: r.PostFormValue("CallStatus"),
	}
	if v := r.PostFormValue("CallDuration"); v != "" {
		// Twilio sends whole seconds; a malformed value bills nothing rather
		// than failing the callback.
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			f.DurationSeconds = secs
		}
	}
	return f, nil
}

type SMSForm struct {
	MessageSid string
	From       string
	To         string
	Body       string
}

func ParseSMSForm(r *http.Request) (SMSForm, error) {
	if err := r.ParseForm(); err != nil {
		return SMSForm{}, err
	}
	return SMSForm{
		MessageSid: r.PostFormValue("MessageSid"),
		From:       normalizePhone(r.PostFormValue("From")),
		To:         normalizePhone(r.PostFormValue("To")),
		Body:       r.PostFormValue("Body"),
	}, nil
}

func normalizePhone(s string) string {
	// Twilio sometimes sends "anonymous" or empty; keep as-is.
	return strings.TrimSpace(s)
}
