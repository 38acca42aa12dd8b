// Package script runs a page's inline scripts just far enough to learn the title they
// leave behind in document.title. It uses the goja JavaScript engine.
package script

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
	"go.uber.org/zap"
)

// DefaultTimeout bounds the total time spent on one page's scripts.
const DefaultTimeout = 250 * time.Millisecond

// errTimeout is the interrupt value used when the time budget runs out.
var errTimeout = errors.New("script time limit exceeded")

// Options tune ResolveTitle.
type Options struct {
	Timeout time.Duration
	Logger  *zap.Logger
}

// ResolveTitle runs sources in order in a fresh VM whose document.title starts as title,
// and returns document.title afterwards. A failing script is skipped; the remaining scripts
// still run until the time budget is spent.
func ResolveTitle(title string, sources []string, opts Options) string {
	if len(sources) == 0 {
		return title
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	vm := goja.New()
	document := vm.NewObject()
	if err := installGlobals(vm, document, title); err != nil {
		log.Debug("script sandbox setup failed", zap.Error(err))
		return title
	}

	timer := time.AfterFunc(opts.Timeout, func() {
		vm.Interrupt(errTimeout)
	})
	defer timer.Stop()

	for i, src := range sources {
		if err := run(vm, src, fmt.Sprintf("inline-%d.js", i)); err != nil {
			var interrupted *goja.InterruptedError
			if errors.As(err, &interrupted) {
				log.Debug("script budget exhausted", zap.Int("script", i))
				break
			}
			log.Debug("inline script failed", zap.Int("script", i), zap.Error(err))
		}
	}

	v := document.Get("title")
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return title
	}
	return strings.Join(strings.Fields(v.String()), " ")
}

func installGlobals(vm *goja.Runtime, document *goja.Object, title string) error {
	if err := document.Set("title", title); err != nil {
		return err
	}

	console := vm.NewObject()
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := console.Set(name, noop); err != nil {
			return err
		}
	}

	global := vm.GlobalObject()
	if err := global.Set("window", global); err != nil {
		return err
	}
	if err := global.Set("self", global); err != nil {
		return err
	}
	if err := global.Set("document", document); err != nil {
		return err
	}
	return global.Set("console", console)
}

// run executes one script, turning engine panics into errors.
func run(vm *goja.Runtime, src, name string) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script panic in %s: %v", name, p)
		}
	}()

	program, err := goja.Compile(name, src, false)
	if err != nil {
		return err
	}
	_, err = vm.RunProgram(program)
	return err
}
