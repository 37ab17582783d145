package exchange

import "testing"

func TestDeserializeOrders(t *testing.T) {
	jsonData := `
        [
            {"user":1,"orderType":"Sell","amount":"40000.000","price":"0.00460","created_at":"2024-05-12T15:25:14.991Z","filled_at":"2024-05-14T15:04:13.000Z","accepter":3768},
            {"user":2,"orderType":"Sell","amount":"100000.000","price":"0.00994","created_at":"2024-03-11T17:23:49.860Z","filled_at":"2024-03-11T17:31:43.000Z","accepter":2440},
            {"user":3,"orderType":"Sell","amount":"50000.000","price":"0.00998","created_at":"2024-03-11T14:46:49.377Z","filled_at":"2024-03-11T14:47:12.000Z","accepter":3710},
            {"user":4,"orderType":"Buy","amount":"3027220.000","price":"0.00110","created_at":"2024-01-14T13:33:13.688Z","filled_at":"2024-01-14T18:02:44.000Z","accepter":227}
        ]
        `

	orders, err := DeserializeOrders([]byte(jsonData))
	if err != nil {
		t.Fatalf("DeserializeOrders: %v", err)
	}

	if len(orders) != 4 {
		t.Fatalf("expected 4 orders, got %d", len(orders))
	}
	if orders[0].User != 1 {
		t.Errorf("expected user 1, got %d", orders[0].User)
	}
	if orders[0].OrderType != OrderTypeSell {
		t.Errorf("expected Sell, got %s", orders[0].OrderType)
	}
	if orders[0].Amount != 40000.000 {
		t.Errorf("expected amount 40000.000, got %v", orders[0].Amount)
	}
	if orders[0].Accepter != 3768 {
		t.Errorf("expected accepter 3768, got %d", orders[0].Accepter)
	}
}

func TestDeserializeOrdersRejectsUnparsableAmount(t *testing.T) {
	jsonData := `[{"user":1,"orderType":"Sell","amount":"not-a-number","price":"0.001","created_at":"2024-05-12T15:25:14.991Z","filled_at":"2024-05-14T15:04:13.000Z","accepter":2}]`

	if _, err := DeserializeOrders([]byte(jsonData)); err == nil {
		t.Fatal("expected an error for a non-numeric amount string")
	}
}
