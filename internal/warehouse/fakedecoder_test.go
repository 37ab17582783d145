package warehouse

import "testing"

func TestFakeDecoderTransfer(t *testing.T) {
	d := FakeDecoder("v7")
	payload := []byte(`{"to":"0xabc","amount":500}`)

	label, args, err := d.Decode("0xsender", "ol_account::transfer", payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	transfer, ok := label.(Transfer)
	if !ok {
		t.Fatalf("expected Transfer, got %T", label)
	}
	if transfer.RecipientAddr != "0xabc" || transfer.Amount != 500 {
		t.Errorf("unexpected transfer: %+v", transfer)
	}
	if args.Version != "v7" {
		t.Errorf("expected version v7, got %s", args.Version)
	}
}

func TestFakeDecoderOnboardingFlag(t *testing.T) {
	d := FakeDecoder("v6")
	payload := []byte(`{"to":"0xnew","amount":10,"is_onboarding":true}`)

	label, _, err := d.Decode("0xsender", "coin::transfer", payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	onboarding, ok := label.(Onboarding)
	if !ok {
		t.Fatalf("expected Onboarding, got %T", label)
	}
	if onboarding.RecipientAddr != "0xnew" || onboarding.Amount != 10 {
		t.Errorf("unexpected onboarding: %+v", onboarding)
	}
}

func TestFakeDecoderVouch(t *testing.T) {
	d := FakeDecoder("v7")
	payload := []byte(`{"friend_account":"0xfriend"}`)

	label, _, err := d.Decode("0xsender", "vouch::vouch_for", payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	vouch, ok := label.(Vouch)
	if !ok {
		t.Fatalf("expected Vouch, got %T", label)
	}
	if vouch.RecipientAddr != "0xfriend" {
		t.Errorf("unexpected vouch: %+v", vouch)
	}
}

func TestFakeDecoderUnknownFunction(t *testing.T) {
	d := FakeDecoder("v7")

	label, args, err := d.Decode("0xsender", "some_module::unrecognized", nil)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := label.(Unknown); !ok {
		t.Fatalf("expected Unknown, got %T", label)
	}
	if args != nil {
		t.Errorf("expected nil args for an unknown function, got %+v", args)
	}
}

func TestChainDecodersFirstMatchWins(t *testing.T) {
	v7Only := FakeDecoder("v7")
	chained := ChainDecoders(v7Only, FakeDecoder("v6"))

	label, args, err := chained.Decode("0xsender", "vouch::insist_vouch_for", []byte(`{"friend_account":"0xfriend"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if _, ok := label.(Vouch); !ok {
		t.Fatalf("expected Vouch, got %T", label)
	}
	if args.Version != "v7" {
		t.Errorf("expected the first decoder in the chain to win, got version %s", args.Version)
	}
}
