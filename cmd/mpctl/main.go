// Command mpctl runs the worked scenarios from spec.md §8 against a live
// Site and prints their results, for manual inspection of the runtime this
// module builds. Flags follow the teacher's style of configuring through
// explicit parameters rather than a config file; dispatchrun-wzprof's
// cmd/wzprof is the only flag-parsing example in the pack, written against
// the standard flag package, but its go.mod already pulls in pflag, so
// mpctl uses that instead for the richer -h/--help output and shorthand
// flags.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/pflag"

	"code.hybscloud.com/mprompt/diag"
	"code.hybscloud.com/mprompt/effects"
	"code.hybscloud.com/mprompt/mprompt"
	"code.hybscloud.com/mprompt/shadow"
)

func main() {
	var (
		scenario   string
		verbose    bool
		profileOut string
	)

	pflag.StringVarP(&scenario, "scenario", "s", "all",
		"which scenario to run: state, reader, exn, choice, under, unwind, or all")
	pflag.BoolVarP(&verbose, "verbose", "v", false,
		"log gstack pool growth and cross-prompt unwind relays")
	pflag.StringVarP(&profileOut, "profile", "p", "",
		"write a pprof-format gstack snapshot to this file after running")
	pflag.Parse()

	if !verbose {
		log.SetOutput(os.Stderr)
		log.SetFlags(0)
	}

	site := mprompt.NewSite()
	defer site.Close()

	scenarios := map[string]func(*mprompt.Site) string{
		"state":  runState,
		"reader": runReader,
		"exn":    runExn,
		"choice": runChoice,
		"under":  runUnder,
		"unwind": runUnwind,
	}

	names := []string{"state", "reader", "exn", "choice", "under", "unwind"}
	if scenario != "all" {
		if _, ok := scenarios[scenario]; !ok {
			fmt.Fprintf(os.Stderr, "mpctl: unknown scenario %q\n", scenario)
			os.Exit(2)
		}
		names = []string{scenario}
	}

	for _, name := range names {
		if verbose {
			idle, everSpawned := site.GstackStats()
			log.Printf("mpctl: running %s scenario (gstack pool: %d idle, %d ever spawned)", name, idle, everSpawned)
		}
		fmt.Printf("%s: %s\n", name, scenarios[name](site))
	}

	if profileOut != "" {
		f, err := os.Create(profileOut)
		if err != nil {
			fmt.Fprintf(os.Stderr, "mpctl: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		if err := diag.Write(f, site); err != nil {
			fmt.Fprintf(os.Stderr, "mpctl: writing profile: %v\n", err)
			os.Exit(1)
		}
	}
}

func runState(s *mprompt.Site) string {
	result, final := effects.RunState(s, 10, func(st effects.State[int]) int {
		v := st.Get()
		st.Put(v + 1)
		return st.Get()
	})
	return fmt.Sprintf("result=%d final=%d", result, final)
}

func runReader(s *mprompt.Site) string {
	result := effects.RunReader(s, "production", func(rd effects.Reader[string]) string {
		return "env=" + rd.Ask()
	})
	return result
}

func runExn(s *mprompt.Site) string {
	result := effects.Catch(s, func(ex effects.Exn[string]) string {
		return effects.Throw[string, string](ex, "disk full")
	}, func(err string) string {
		return "recovered from: " + err
	})
	return result
}

func runChoice(s *mprompt.Site) string {
	results := effects.RunChoice(s, func(ch effects.Choice[int]) int {
		if ch.Flip() {
			return 1
		}
		return 0
	})
	return fmt.Sprintf("%v", results)
}

func runUnder(s *mprompt.Site) string {
	k := shadow.NewKind("mpctl.logging")
	result := s.Prompt(k,
		func() any { return "outer" },
		func(hdata, arg any) any {
			return s.Prompt(k,
				func() any { return "inner" },
				func(hdata2, arg2 any) any {
					return s.Under(k, func(a any) any {
						h := s.Find(k)
						return mprompt.Data(h)
					}, nil)
				},
				func(hdata2, arg2 any) any { return arg2 },
				nil,
			)
		},
		func(hdata, arg any) any { return arg },
		nil,
	)
	return fmt.Sprintf("resolved to handler data %q", result)
}

func runUnwind(s *mprompt.Site) string {
	outerKind := shadow.NewKind("mpctl.outer-unwind")
	result := s.Prompt(outerKind,
		func() any { return nil },
		func(hdata, arg any) any {
			outerHandler := s.Top()
			inner := shadow.NewKind("mpctl.inner")
			return s.Prompt(inner,
				func() any { return nil },
				func(hdata2, arg2 any) any {
					defer func() {
						if verboseEnabled() {
							log.Printf("mpctl: inner cleanup ran during unwind")
						}
					}()
					mprompt.Unwind(outerHandler, "connection reset")
					return "unreachable"
				},
				func(hdata2, arg2 any) any { return arg2 },
				nil,
			)
		},
		func(hdata, arg any) any { return "handled: " + arg.(string) },
		nil,
	)
	return result.(string)
}

func verboseEnabled() bool {
	v, err := pflag.CommandLine.GetBool("verbose")
	return err == nil && v
}
