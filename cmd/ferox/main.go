/*
 * This Source Code Form is subject to the terms of the Mozilla Public License, v. 2.0.
 * If a copy of the MPL was not distributed with this file, You can obtain one at
 * https://mozilla.org/MPL/2.0/.
 */

// Command ferox is the CLI collaborator around the ferox package: it
// owns argument parsing, password prompting, progress rendering, and
// translating *ferox.Error into exit codes. The core engine never
// imports this package.
package main

import "os"

func main() {
	os.Exit(Execute())
}
