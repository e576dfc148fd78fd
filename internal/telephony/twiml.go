package telephony

import (
	"bytes"
	"encoding/xml"
)

// Minimal TwiML builder. It intentionally avoids any provider SDK dependency;
// only the verbs the receptionist flow needs are modeled.

const sayVoice = "alice"

type twimlDocument struct {
	XMLName xml.Name `xml:"Response"`
	Verbs   []any    `xml:",any"`
}

type twimlSay struct {
	XMLName xml.Name `xml:"Say"`
	Voice   string   `xml:"voice,attr,omitempty"`
	Text    string   `xml:",chardata"`
}

type twimlGather struct {
	XMLName   xml.Name `xml:"Gather"`
	NumDigits int      `xml:"numDigits,attr"`
	Action    string   `xml:"action,attr"`
	Method    string   `xml:"method,attr"`
	Timeout   int      `xml:"timeout,attr,omitempty"`
	Say       twimlSay `xml:"Say"`
}

type twimlDial struct {
	XMLName xml.Name `xml:"Dial"`
	Number  string   `xml:"Number"`
}

type twimlMessage struct {
	XMLName xml.Name `xml:"Message"`
	Body    string   `xml:",chardata"`
}

type twimlRecord struct {
	XMLName   xml.Name `xml:"Record"`
	MaxLength int      `xml:"maxLength,attr,omitempty"`
	PlayBeep  bool     `xml:"playBeep,attr"`
}

type twimlHangup struct {
	XMLName xml.Name `xml:"Hangup"`
}

type twimlReject struct {
	XMLName xml.Name `xml:"Reject"`
	Reason  string   `xml:"reason,attr,omitempty"`
}

// Response accumulates TwiML verbs in order.
type Response struct {
	verbs []any
}

func (r *Response) Say(text string) *Response {
	r.verbs = append(r.verbs, twimlSay{Voice: sayVoice, Text: text})
	return r
}

// Gather prompts the caller and posts the pressed digits to action.
func (r *Response) Gather(action, prompt string, numDigits int) *Response {
	r.verbs = append(r.verbs, twimlGather{
		NumDigits: numDigits,
		Action:    action,
		Method:    "POST",
		Timeout:   5,
		Say:       twimlSay{Voice: sayVoice, Text: prompt},
	})
	return r
}

func (r *Response) Dial(number string) *Response {
	r.verbs = append(r.verbs, twimlDial{Number: number})
	return r
}

// Message queues an SMS reply (messaging webhooks only).
func (r *Response) Message(body string) *Response {
	r.verbs = append(r.verbs, twimlMessage{Body: body})
	return r
}

// Record captures a voicemail of at most maxSeconds.
func (r *Response) Record(maxSeconds int) *Response {
	r.verbs = append(r.verbs, twimlRecord{MaxLength: maxSeconds, PlayBeep: true})
	return r
}

func (r *Response) Hangup() *Response {
	r.verbs = append(r.verbs, twimlHangup{})
	return r
}

func (r *Response) Reject(reason string) *Response {
	r.verbs = append(r.verbs, twimlReject{Reason: reason})
	return r
}

func (r *Response) Render() (string, error) {
	doc := twimlDocument{Verbs: r.verbs}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	if err := enc.Flush(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
