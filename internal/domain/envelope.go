package domain

// Envelope is the uniform result returned for every dispatched intent.
// A failed envelope never carries data.
type Envelope struct {
	Success    bool   `json:"success"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	IsRealData bool   `json:"isRealData"`
}

// Succeed wraps data produced by a tier. real must be true only when the data
// came from the live directory.
func Succeed(data any, message string, real bool) Envelope {
	return Envelope{
		Success:    true,
		Data:       data,
		Message:    message,
		IsRealData: real,
	}
}

// Fail builds an unsuccessful envelope with no data.
func Fail(message string) Envelope {
	return Envelope{
		Success: false,
		Data:    nil,
		Message: message,
	}
}
