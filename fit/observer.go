package fit

// Observer receives diagnostics of fit runs. Implementations must be cheap:
// they are called synchronously on the fitting goroutine.
type Observer interface {
	Warn(w Warning)
	Finished(r Result)
}

// NopObserver discards everything.
type NopObserver struct{}

func (NopObserver) Warn(Warning)    {}
func (NopObserver) Finished(Result) {}

// ObserverFuncs adapts plain functions to an Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnWarn     func(Warning)
	OnFinished func(Result)
}

func (o ObserverFuncs) Warn(w Warning) {
	if o.OnWarn != nil {
		o.OnWarn(w)
	}
}

func (o ObserverFuncs) Finished(r Result) {
	if o.OnFinished != nil {
		o.OnFinished(r)
	}
}

// Observers fans diagnostics out to every non-nil observer in order.
func Observers(obs ...Observer) Observer {
	list := make(multiObserver, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NopObserver{}
	case 1:
		return list[0]
	}
	return list
}

type multiObserver []Observer

func (m multiObserver) Warn(w Warning) {
	for _, o := range m {
		o.Warn(w)
	}
}

func (m multiObserver) Finished(r Result) {
	for _, o := range m {
		o.Finished(r)
	}
}
