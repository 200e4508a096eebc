package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("NOTIFY_CHANNEL_PRIORITY", "")
	t.Setenv("TWILIO_ACCOUNT_SID", "")
	t.Setenv("AUTH_GROUP_CODES", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Notify.ChannelPriority; len(got) != 5 || got[0] != "sms" {
		t.Fatalf("ChannelPriority = %v", got)
	}
	if cfg.Channels.Twilio.Configured() {
		t.Fatal("twilio should not be configured without credentials")
	}
	if cfg.Notify.BulkDelay() != time.Second {
		t.Fatalf("BulkDelay = %v, want 1s", cfg.Notify.BulkDelay())
	}
}

func TestLoadGroupCodesAndPriority(t *testing.T) {
	t.Setenv("AUTH_GROUP_CODES", "BAL2025ECON=Bal Economic; BAL2025CARA = Bal Carabella")
	t.Setenv("NOTIFY_CHANNEL_PRIORITY", "email, sms")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.GroupCodes["BAL2025CARA"] != "Bal Carabella" {
		t.Fatalf("GroupCodes = %v", cfg.Auth.GroupCodes)
	}
	if got := cfg.Notify.ChannelPriority; len(got) != 2 || got[0] != "email" || got[1] != "sms" {
		t.Fatalf("ChannelPriority = %v", got)
	}
}

func TestLoadRejectsMalformedGroupCodes(t *testing.T) {
	t.Setenv("AUTH_GROUP_CODES", "NOEQUALS")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for malformed group codes")
	}
}

func TestChannelConfigured(t *testing.T) {
	if !(TwilioConfig{AccountSID: "a", AuthToken: "b", FromNumber: "+1"}).Configured() {
		t.Fatal("twilio with all fields should be configured")
	}
	if (MetaConfig{AccessToken: "t"}).Configured() {
		t.Fatal("meta without phone number id should not be configured")
	}
	if got := (EmailConfig{User: "u@example.com"}).Sender(); got != "u@example.com" {
		t.Fatalf("Sender = %q", got)
	}
}
