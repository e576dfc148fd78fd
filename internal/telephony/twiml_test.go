package telephony

import (
	"strings"
	"testing"
)

func TestRender_GatherMenu(t *testing.T) {
	out, err := new(Response).
		Say("Thank you for calling Bluebird Dental.").
		Gather(PathIVR, "Press 1 for hours.", 1).
		Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		`<?xml version="1.0" encoding="UTF-8"?>`,
		"<Response>",
		`voice="alice"`,
		"Thank you for calling Bluebird Dental.",
		`numDigits="1"`,
		`action="` + PathIVR + `"`,
		`method="POST"`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_DialAndHangup(t *testing.T) {
	out, err := new(Response).
		Say("Connecting you now.").
		Dial("+15559998888").
		Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Number>+15559998888</Number>") {
		t.Fatalf("missing dial number:\n%s", out)
	}

	out, err = new(Response).Hangup().Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Hangup") {
		t.Fatalf("missing hangup:\n%s", out)
	}
}

func TestRender_MessageReply(t *testing.T) {
	out, err := new(Response).Message("Thanks for texting!").Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<Message>Thanks for texting!</Message>") {
		t.Fatalf("missing message:\n%s", out)
	}
}

func TestRender_Reject(t *testing.T) {
	out, err := new(Response).Reject("rejected").Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<Reject reason="rejected"`) {
		t.Fatalf("missing reject:\n%s", out)
	}
}
