package scripting

import (
	"context"

	"github.com/dop251/goja"
)

type GojaEngine struct {
	vm *goja.Runtime
}

func NewEngine() *GojaEngine {
	return &GojaEngine{vm: goja.New()}
}

func (e *GojaEngine) Execute(ctx context.Context, script string) (interface{}, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	val, err := e.vm.RunString(script)
	if err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	return val.Export(), nil
}

func (e *GojaEngine) RegisterDOM(dom DocumentDOM) error {
	// Expose 'app' object
	appObj := e.vm.NewObject()
	err := appObj.Set("alert", func(call goja.FunctionCall) goja.Value {
		msg := ""
		if len(call.Arguments) > 0 {
			msg = call.Arguments[0].String()
		}
		dom.Alert(msg)
		return goja.Undefined()
	})
	if err != nil {
		return err
	}
	e.vm.Set("app", appObj)

	// Document-level functions, exposed globally as if 'this' is the document.
	e.vm.Set("pageCount", func(goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.PageCount())
	})
	e.vm.Set("activePage", func(goja.FunctionCall) goja.Value {
		return e.vm.ToValue(dom.ActivePage())
	})
	e.vm.Set("switchPage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return e.vm.ToValue(false)
		}
		err := dom.SwitchPage(int(call.Arguments[0].ToInteger()))
		return e.vm.ToValue(err == nil)
	})
	e.vm.Set("getPage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		page, err := dom.GetPage(int(call.Arguments[0].ToInteger()))
		if err != nil || page == nil {
			return goja.Null()
		}
		return e.vm.ToValue(&pageProxyWrapper{p: page})
	})

	return nil
}

type pageProxyWrapper struct {
	p PageProxy
}

func (p *pageProxyWrapper) GetIndex() int { return p.p.GetIndex() }

func (p *pageProxyWrapper) BoxCount() int { return p.p.BoxCount() }

func (p *pageProxyWrapper) AddTextBox(text string, left, top float64) string {
	return p.p.AddTextBox(text, left, top)
}

func (p *pageProxyWrapper) SetBoxText(id, text string) bool {
	return p.p.SetBoxText(id, text) == nil
}
