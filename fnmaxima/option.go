package fnmaxima

import "github.com/sgostarter/i/l"

type Options struct {
	logger l.Wrapper
}

type Option func(o *Options)

func optionNew(option ...Option) *Options {
	opts := &Options{}
	for _, o := range option {
		o(opts)
	}

	return opts
}

func WithLogger(logger l.Wrapper) Option {
	return func(o *Options) {
		o.logger = logger
	}
}
