package orders

// Gateway memutuskan sebuah payment attempt settle atau tidak.
// Pengganti integrasi payment provider beneran; kontraknya tetap sama
// jadi implementasi eksternal tinggal di-plug.
type Gateway interface {
	Name() string
	Authorize(p Payment) bool
}

// SimulatedGateway: deterministik, approve semua charge positif.
type SimulatedGateway struct{}

func (SimulatedGateway) Name() string { return "simulated" }

func (SimulatedGateway) Authorize(p Payment) bool {
	return p.Amount.IsPositive()
}
