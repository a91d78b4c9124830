package htmldoc

// Option configures Parse.
type Option func(*options)

type options struct {
	styleSheets []string
}

// userAgentStyleSheet hides the elements a browser never renders.
const userAgentStyleSheet = `
head, script, style, template, datalist, param, noembed, noframes { display: none }
`

func defaultOptions() options {
	return options{styleSheets: []string{userAgentStyleSheet}}
}

// WithStyleSheet adds an author stylesheet applied before the document's own
// <style> elements.
func WithStyleSheet(css string) Option {
	return func(o *options) {
		o.styleSheets = append(o.styleSheets, css)
	}
}

// WithoutUserAgentStyles drops the built-in stylesheet.
func WithoutUserAgentStyles() Option {
	return func(o *options) {
		var kept []string
		for _, s := range o.styleSheets {
			if s != userAgentStyleSheet {
				kept = append(kept, s)
			}
		}
		o.styleSheets = kept
	}
}
