package regex

const (
	match    = iota
	char     // arg is the rune
	anyrune  // any rune but newline
	class    // arg is class index
	nclass   // arg is class index
	assert   // arg is the assertion kind
	jmp      // arg is the target pc
	fork     // pc+1 is preferred, arg is the alternative
	rfork    // arg is preferred, pc+1 is the alternative
	save     // arg is the capture slot; close is set for the second save of a group
	mark     // arg is the loop index
	progress // arg is the loop index
	lookop   // arg is the look index
	backref  // arg is the refs index
	callout  // arg is the callout number
)

type instr struct {
	op    int
	arg   int
	close bool
}

type compiler struct {
	re    *Regexp
	prog  []instr
	nmark int
}

// compile returns the program for n.
// A reversed program consumes text backward from its starting position;
// it is used for lookbehind.
func (c *compiler) compile(n *node, rev bool) []instr {
	saved := c.prog
	c.prog = nil
	c.emit(n, rev)
	c.prog = append(c.prog, instr{op: match})
	prog := c.prog
	c.prog = saved
	return prog
}

func (c *compiler) pc() int { return len(c.prog) }

func (c *compiler) add(op, arg int) int {
	c.prog = append(c.prog, instr{op: op, arg: arg})
	return len(c.prog) - 1
}

func (c *compiler) emit(n *node, rev bool) {
	switch n.op {
	case nEmpty:
	case nRune:
		c.add(char, int(n.r))
	case nAny:
		c.add(anyrune, 0)
	case nClass:
		op := class
		if n.neg {
			op = nclass
		}
		c.add(op, len(c.re.class))
		c.re.class = append(c.re.class, n.class)
	case nAssert:
		c.add(assert, n.kind)
	case nCap:
		open, shut := 2*n.cap, 2*n.cap+1
		if rev {
			open, shut = shut, open
		}
		c.add(save, open)
		c.emit(n.subs[0], rev)
		c.prog = append(c.prog, instr{op: save, arg: shut, close: true})
	case nGroup:
		c.emit(n.subs[0], rev)
	case nConcat:
		if rev {
			for i := len(n.subs) - 1; i >= 0; i-- {
				c.emit(n.subs[i], rev)
			}
			return
		}
		for _, sub := range n.subs {
			c.emit(sub, rev)
		}
	case nAlt:
		c.alt(n.subs, rev)
	case nRepeat:
		c.repeat(n, rev)
	case nLook:
		c.re.looks = append(c.re.looks, look{behind: n.kind == 1, neg: n.neg})
		i := len(c.re.looks) - 1
		c.re.looks[i].prog = c.compile(n.subs[0], n.kind == 1)
		c.add(lookop, i)
	case nBackref:
		c.add(backref, n.cap)
	case nCallout:
		c.add(callout, n.cap)
	}
}

func (c *compiler) alt(alts []*node, rev bool) {
	var jmps []int
	for i, a := range alts {
		if i == len(alts)-1 {
			c.emit(a, rev)
			break
		}
		f := c.add(fork, 0)
		c.emit(a, rev)
		jmps = append(jmps, c.add(jmp, 0))
		c.prog[f].arg = c.pc()
	}
	for _, j := range jmps {
		c.prog[j].arg = c.pc()
	}
}

func (c *compiler) repeat(n *node, rev bool) {
	sub := n.subs[0]
	for i := 0; i < n.min; i++ {
		c.emit(sub, rev)
	}
	if n.max < 0 {
		c.star(sub, n.lazy, rev)
		return
	}
	var forks []int
	for i := n.min; i < n.max; i++ {
		forks = append(forks, c.branch(n.lazy))
		c.emit(sub, rev)
	}
	for _, f := range forks {
		c.prog[f].arg = c.pc()
	}
}

// branch adds a fork whose arg, the exit, is patched later.
// A lazy branch prefers the exit.
func (c *compiler) branch(lazy bool) int {
	if lazy {
		return c.add(rfork, 0)
	}
	return c.add(fork, 0)
}

// star loops over sub.
// An iteration that consumes nothing fails,
// so a loop over an expression matching empty terminates.
func (c *compiler) star(sub *node, lazy, rev bool) {
	k := c.nmark
	c.nmark++
	top := c.branch(lazy)
	c.add(mark, k)
	c.emit(sub, rev)
	c.add(progress, k)
	c.add(jmp, top)
	c.prog[top].arg = c.pc()
}
