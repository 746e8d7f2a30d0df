// Copyright (c) 2018, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

//go:build unix

package interp_test

import (
	"context"
	"fmt"
	"os"

	"mvdan.cc/fsh/interp"
	"mvdan.cc/fsh/parser"
	"mvdan.cc/fsh/vars"
)

func Example() {
	prog, _ := parser.ParseString(`GREETING=hello; echo $GREETING world | tr a-z A-Z`)
	state, _ := interp.New(
		vars.New("PATH=/usr/bin:/bin"),
		interp.StdIO(nil, os.Stdout, os.Stdout),
	)
	defer state.Close()
	state.Eval(context.TODO(), prog)
	// Output:
	// HELLO WORLD
}

func ExampleState_LastReaped() {
	prog, _ := parser.ParseString(`true | false`)
	state, _ := interp.New(vars.New("PATH=/usr/bin:/bin"), interp.StdIO(nil, nil, nil))
	defer state.Close()
	state.Eval(context.TODO(), prog)
	for _, r := range state.LastReaped() {
		fmt.Println(r.Status.ExitCode())
	}
	// Output:
	// 0
	// 1
}

func ExampleLookPathDir() {
	env := vars.New("PATH=/usr/bin:/bin")
	if _, err := interp.LookPathDir("/", env, "missing-program"); err != nil {
		fmt.Println("missing-program is not installed")
	}
	// Output:
	// missing-program is not installed
}
