package nats

// Subjects names the NATS subjects a party listens on.
type Subjects struct {
	Inbox string
}

func NewSubjects(partyID string) Subjects {
	return Subjects{
		Inbox: partyID + ".inbox",
	}
}
