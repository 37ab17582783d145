package warehouse

import "encoding/json"

// fakeDecodedPayload is the JSON shape FakeDecoder expects in rawPayload. A
// real decoder would instead walk BCS-encoded Move call arguments; this one
// exists so the rest of the pipeline (and its tests) can run against
// deterministic input without a bytecode decoder wired in.
type fakeDecodedPayload struct {
	To      string `json:"to"`
	Amount  uint64 `json:"amount"`
	AuthKey string `json:"auth_key"`
	Friend  string `json:"friend_account"`
	Onboard bool   `json:"is_onboarding"`
}

// FakeDecoder is a deterministic stand-in for a real per-version bytecode
// decoder. It recognizes the same entry function names a real decoder
// would resolve a call to (ol_account::transfer, ol_account::create_account,
// coin::transfer, vouch::vouch_for, vouch::insist_vouch_for) and expects
// rawPayload to be the small JSON object described by fakeDecodedPayload
// rather than BCS bytes. It is wired in wherever a real decoder is not
// available — CLI default, and every test in this module that needs an
// EntryFunctionDecoder.
func FakeDecoder(version string) EntryFunctionDecoder {
	return DecoderFunc(func(sender, functionName string, rawPayload []byte) (RelationLabel, *EntryFunctionArgs, error) {
		var p fakeDecodedPayload
		if len(rawPayload) > 0 {
			if err := json.Unmarshal(rawPayload, &p); err != nil {
				return Unknown{}, nil, nil
			}
		}

		args := &EntryFunctionArgs{Version: version, Args: map[string]any{
			"to": p.To, "amount": p.Amount, "auth_key": p.AuthKey, "friend_account": p.Friend,
		}}

		switch functionName {
		case "ol_account::transfer", "coin::transfer":
			if p.Onboard {
				return Onboarding{RecipientAddr: p.To, Amount: p.Amount}, args, nil
			}
			return Transfer{RecipientAddr: p.To, Amount: p.Amount}, args, nil
		case "ol_account::create_account":
			return Onboarding{RecipientAddr: p.AuthKey, Amount: 0}, args, nil
		case "vouch::vouch_for", "vouch::insist_vouch_for":
			return Vouch{RecipientAddr: p.Friend}, args, nil
		case "diem_governance::ol_set_epoch_interval", "autopay::set":
			return Configuration{}, args, nil
		case "tower_state::commit", "tower_state::minerstate_commit":
			return Miner{}, args, nil
		default:
			return Unknown{}, nil, nil
		}
	})
}
