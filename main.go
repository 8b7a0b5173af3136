// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/uscompile/uscompile/cmd/uscompile"

func main() {
	cmd.Execute()
}
