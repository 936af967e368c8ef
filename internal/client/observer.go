package client

import "github.com/DoyleJ11/promptparty/internal/session"

// Observer receives everything the UI needs. Calls are made from the
// client's event loop, in order; implementations must not block and must not
// call back into the Client synchronously.
type Observer interface {
	OnState(session.State)
	OnNavigate(session.Route)
	OnAlert(message string)
}

type nopObserver struct{}

func (nopObserver) OnState(session.State)    {}
func (nopObserver) OnNavigate(session.Route) {}
func (nopObserver) OnAlert(string)           {}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	State    func(session.State)
	Navigate func(session.Route)
	Alert    func(string)
}

func (o ObserverFuncs) OnState(s session.State) {
	if o.State != nil {
		o.State(s)
	}
}

func (o ObserverFuncs) OnNavigate(r session.Route) {
	if o.Navigate != nil {
		o.Navigate(r)
	}
}

func (o ObserverFuncs) OnAlert(m string) {
	if o.Alert != nil {
		o.Alert(m)
	}
}
