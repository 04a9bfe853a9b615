package orders

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusProcessing Status = "PROCESSING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusFailed     Status = "FAILED"
	StatusRefunded   Status = "REFUNDED"
)

// Tabel transisi status order. Transisi yang tidak ada di sini ditolak engine.
var validNext = map[Status]map[Status]bool{
	StatusPending:    {StatusProcessing: true, StatusCancelled: true, StatusFailed: true},
	StatusProcessing: {StatusConfirmed: true, StatusCancelled: true, StatusFailed: true},
	StatusConfirmed:  {StatusCompleted: true, StatusCancelled: true},
	StatusCompleted:  {StatusRefunded: true},
	StatusCancelled:  {},
	StatusFailed:     {},
	StatusRefunded:   {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) IsTerminal() bool {
	return len(validNext[s]) == 0
}

func (s Status) String() string { return string(s) }

type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "PENDING"
	PaymentProcessing PaymentStatus = "PROCESSING"
	PaymentCompleted  PaymentStatus = "COMPLETED"
	PaymentFailed     PaymentStatus = "FAILED"
	PaymentRefunded   PaymentStatus = "REFUNDED"
	PaymentCancelled  PaymentStatus = "CANCELLED"
)

func (s PaymentStatus) String() string { return string(s) }

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "CREDIT_CARD"
	MethodDebitCard    PaymentMethod = "DEBIT_CARD"
	MethodPayPal       PaymentMethod = "PAYPAL"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCash         PaymentMethod = "CASH"
	MethodCrypto       PaymentMethod = "CRYPTO"
)

var validMethods = map[PaymentMethod]bool{
	MethodCreditCard:   true,
	MethodDebitCard:    true,
	MethodPayPal:       true,
	MethodBankTransfer: true,
	MethodCash:         true,
	MethodCrypto:       true,
}

func (m PaymentMethod) Valid() bool { return validMethods[m] }
