package domain

import "encoding/json"

type Memorable interface {
	ToJson() string
	FromJson(jstr string) error
}

type Memo struct {
	Key  string `json:"key"`
	Memo string `json:"memo"`
}

// BridgeMemo is the stream's resumption checkpoint. It is written before an
// event is processed so a poison event cannot be redelivered forever.
type BridgeMemo struct {
	LastEventId string `json:"last_event_id"`
}

func (obj *BridgeMemo) ToJson() string {
	jstr, err := json.Marshal(obj)
	if err != nil {
		return err.Error()
	}
	return string(jstr)
}

func (obj *BridgeMemo) FromJson(jstr string) error {
	err := json.Unmarshal([]byte(jstr), obj)
	return err
}
