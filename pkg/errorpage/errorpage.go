// Package errorpage renders errors as HTML for debugging.
package errorpage

import (
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	pkgerrors "github.com/pkg/errors"

	"github.com/dtnitsch/html-page/pkg/element"
	"github.com/dtnitsch/html-page/pkg/page"
	"github.com/dtnitsch/html-page/pkg/pageerr"
)

var dumper = spew.ConfigState{
	Indent:                  " ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

type messageContexter interface {
	MessageContext() []pageerr.Field
}

// StatusCode returns 404 for missing resources and 500 for everything else.
func StatusCode(err error) int {
	if pageerr.IsNotFound(err) || errors.Is(err, fs.ErrNotExist) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// Render describes err in detail: type and origin, message, fields and
// message context, then the stack frames.
func Render(err error) []element.Node {
	if err == nil {
		return nil
	}

	origin := innermost(err)

	var trace pkgerrors.StackTrace
	if st := deepestStack(err); st != nil {
		trace = st.StackTrace()
	}

	heading := []element.Node{element.NewGeneric("b", nil, element.Text(fmt.Sprintf("%T", origin)))}
	if len(trace) > 0 {
		_, file, line := frameInfo(trace[0])
		heading = append(heading, element.Text(fmt.Sprintf(" at %s:%d", file, line)))
	}

	out := []element.Node{
		element.NewGeneric("p", nil, heading...),
		element.NewGeneric("p", nil, element.NewGeneric("b", nil, element.Text(err.Error()))),
	}

	if items := properties(origin); len(items) > 0 {
		out = append(out, element.NewGeneric("ul", nil, items...))
	}

	for _, f := range trace {
		fn, file, line := frameInfo(f)
		out = append(out, element.NewGeneric("p", nil, element.Text(fmt.Sprintf("%s() in %s:%d", fn, file, line))))
	}

	return out
}

// innermost follows the Unwrap chain to its end, stopping before the
// sentinels of pageerr.
func innermost(err error) error {
	for {
		if _, ok := err.(*pageerr.Error); ok {
			return err
		}
		next := errors.Unwrap(err)
		if next == nil {
			return err
		}
		err = next
	}
}

// deepestStack returns the innermost error in the chain that carries a stack.
func deepestStack(err error) stackTracer {
	var found stackTracer
	for ; err != nil; err = errors.Unwrap(err) {
		if st, ok := err.(stackTracer); ok {
			found = st
		}
	}
	return found
}

func frameInfo(f pkgerrors.Frame) (fn, file string, line int) {
	fn = fmt.Sprintf("%n", f)
	file = fmt.Sprintf("%+s", f)
	if _, path, ok := strings.Cut(file, "\n\t"); ok {
		file = path
	}
	line, _ = strconv.Atoi(fmt.Sprintf("%d", f))
	return fn, file, line
}

func properties(err error) []element.Node {
	var items []element.Node

	if pe, ok := err.(*pageerr.Error); ok {
		items = append(items, item("code", string(pe.Code)))
	} else {
		v := reflect.ValueOf(err)
		for v.Kind() == reflect.Pointer && !v.IsNil() {
			v = v.Elem()
		}
		if v.Kind() == reflect.Struct {
			t := v.Type()
			for i := 0; i < t.NumField(); i++ {
				if !t.Field(i).IsExported() {
					continue
				}
				items = append(items, item(t.Field(i).Name, v.Field(i).Interface()))
			}
		}
	}

	if mc, ok := err.(messageContexter); ok {
		for _, f := range mc.MessageContext() {
			items = append(items, item(f.Key, f.Value))
		}
	}

	return items
}

func item(key string, value any) element.Node {
	li := element.NewGeneric("li", nil, element.Text(key+" = "))

	switch v := value.(type) {
	case element.Node:
		li.Children = append(li.Children, v)
	case string:
		li.Children = append(li.Children, element.Text(strconv.Quote(v)))
	case error:
		li.Children = append(li.Children, element.Text(v.Error()))
	default:
		li.Children = append(li.Children, element.Text(dumper.Sprint(v)))
	}

	return li
}

// NewPage returns a complete page describing err, with the matching status.
// A nil factory gets a default one.
func NewPage(f *page.Factory, err error) (*page.Page, error) {
	if f == nil {
		var ferr error
		if f, ferr = page.NewFactory(nil, page.Options{}); ferr != nil {
			return nil, ferr
		}
	}

	p := page.New(f)
	p.SetStatusCode(StatusCode(err))

	if berr := p.Begin(nil, nil, nil); berr != nil {
		return nil, fmt.Errorf("error beginning error page: %w", berr)
	}
	if werr := p.WriteNodes(Render(err)...); werr != nil {
		return nil, fmt.Errorf("error rendering error page: %w", werr)
	}
	p.End()

	return p, nil
}

// Show writes an error response. With displayErrors the response is a full
// error page, otherwise the plain status text.
func Show(w http.ResponseWriter, err error, f *page.Factory, displayErrors bool) error {
	status := StatusCode(err)

	if f != nil {
		f.Logger().Error("showing error", "status", status, "error", err)
	}

	if !displayErrors {
		http.Error(w, http.StatusText(status), status)
		return nil
	}

	p, perr := NewPage(f, err)
	if perr != nil {
		return perr
	}
	return p.WriteResponse(w)
}
