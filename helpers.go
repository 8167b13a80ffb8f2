// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

import (
	"fmt"
	"strconv"
	"strings"
)

// logOp writes its arguments to the host logger. It takes no time.
type logOp struct {
	Base
}

func (op *logOp) Init(args Args) error {
	p := op.Process()
	p.Host().Logger().Info(formatValues(args), "process", p.ID())
	op.SetFinished(true)
	return nil
}

// formatValues renders values separated by spaces; numbers keep five
// decimals.
func formatValues(values []any) string {
	var b strings.Builder
	for i, v := range values {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch x := v.(type) {
		case nil:
			b.WriteString("nil")
		case bool:
			b.WriteString(strconv.FormatBool(x))
		case string:
			b.WriteString(x)
		case float32, float64:
			n, _ := toNumber(x)
			b.WriteString(strconv.FormatFloat(n, 'f', 5, 64))
		default:
			fmt.Fprint(&b, x)
		}
	}
	return b.String()
}
