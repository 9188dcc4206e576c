package cli

import (
	"fmt"
	"strings"

	"github.com/idilsaglam/tada/internal/config"
	"github.com/idilsaglam/tada/internal/prefs"
	"github.com/idilsaglam/tada/internal/ui"
)

func doConfigShow() int {
	cfg, err := config.Load()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	fmt.Printf("base_url:     %s\n", cfg.BaseURL)
	fmt.Printf("table:        %s\n", cfg.Table)
	fmt.Printf("contract_key: %s (%s)\n", cfg.Masked(), cfg.Source)
	fmt.Printf("env override: %s, %s, %s\n", config.EnvBaseURL, config.EnvContractKey, config.EnvTable)
	return 0
}

func doConfigSet(key, value string) int {
	cfg, err := config.LoadFile()
	if err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	if err := cfg.Set(key, value); err != nil {
		ui.Fail("config: " + err.Error())
		return 2
	}
	if err := config.Save(cfg); err != nil {
		ui.Fail("config: " + err.Error())
		return 1
	}
	ui.OK("saved " + key)
	return 0
}

func doPrefs(a []string) int {
	usage := "usage: todo prefs <get KEY [KIND]|set KEY VALUE [KIND]>"
	if len(a) < 2 {
		ui.Fail(usage)
		return 2
	}
	kindArg := func(i int) (prefs.Kind, bool) {
		if len(a) <= i {
			return prefs.String, true
		}
		k, err := prefs.ParseKind(a[i])
		if err != nil {
			ui.Fail("prefs: " + err.Error())
			return 0, false
		}
		return k, true
	}

	p, err := openPrefs()
	if err != nil {
		ui.Fail("prefs: " + err.Error())
		return 1
	}
	switch a[0] {
	case "get":
		if len(a) > 3 {
			ui.Fail(usage)
			return 2
		}
		kind, ok := kindArg(2)
		if !ok {
			return 2
		}
		v, found := p.Get(a[1], kind)
		if !found {
			ui.Fail("prefs: no " + kind.String() + " value for " + a[1])
			return 1
		}
		if arr, isArr := v.([]string); isArr {
			fmt.Println(strings.Join(arr, ","))
		} else {
			fmt.Println(v)
		}
		return 0

	case "set":
		if len(a) < 3 || len(a) > 4 {
			ui.Fail(usage)
			return 2
		}
		kind, ok := kindArg(3)
		if !ok {
			return 2
		}
		v, err := prefs.ParseValue(a[2], kind)
		if err != nil {
			ui.Fail("prefs: " + err.Error())
			return 2
		}
		if err := p.Set(a[1], v); err != nil {
			ui.Fail("prefs: " + err.Error())
			return 1
		}
		ui.OK("stored " + a[1])
		return 0
	}
	ui.Fail(usage)
	return 2
}
