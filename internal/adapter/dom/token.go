//go:build js

package dom

import (
	"context"
	"errors"

	hdom "honnef.co/go/js/dom"

	"github.com/Strob0t/fieldtoggle/internal/port/token"
)

// ErrTokenNotFound is returned when the page has no anti-forgery token field.
var ErrTokenNotFound = errors.New("dom: csrfmiddlewaretoken not found")

const tokenSelector = "[name=csrfmiddlewaretoken]"

// TokenFromDocument reads the token from the page on every call, so a token
// rotated by the server-rendered page is always current.
func TokenFromDocument(doc hdom.Document) token.Provider {
	return token.ProviderFunc(func(context.Context) (string, error) {
		el := doc.QuerySelector(tokenSelector)
		if el == nil {
			return "", ErrTokenNotFound
		}
		if input, ok := el.(*hdom.HTMLInputElement); ok {
			return input.Value, nil
		}
		return el.GetAttribute("value"), nil
	})
}
