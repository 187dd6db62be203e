package database

import "encoding/json"

func jsonMarshalInventory(inv Inventory) ([]byte, error) {
	return json.Marshal(inv)
}

func jsonUnmarshalInventory(blob []byte, inv *Inventory) error {
	if len(blob) == 0 {
		*inv = Inventory{}
		return nil
	}
	return json.Unmarshal(blob, inv)
}
