// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package csp

// queue is the FIFO of processes awaiting evaluation.
type queue struct {
	processes []*Process
}

func (q *queue) Len() int {
	return len(q.processes)
}

func (q *queue) Push(p *Process) {
	q.processes = append(q.processes, p)
}

func (q *queue) Pop() *Process {
	if len(q.processes) == 0 {
		return nil
	}
	p := q.processes[0]
	q.processes[0] = nil
	q.processes = q.processes[1:]
	return p
}

func (q *queue) Reset() {
	clear(q.processes)
	q.processes = nil
}
