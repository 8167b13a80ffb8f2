// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import "code.hybscloud.com/atomix"

// Serial identifies a process. Serials are unique across every host in the
// program and increase in creation order; they appear in log records as
// "process".
type Serial = uint32

var processSerials atomix.Uint32

func nextSerial() Serial {
	return processSerials.Add(1)
}
