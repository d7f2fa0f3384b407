package selector

import "strings"

// Check validates desc without a world to resolve it against: the length limit and
// every modifier list, including those of context prefixes and of the monitor or
// desktop part before a colon. A descriptor that passes may still be Invalid or
// BadDescriptor once resolved.
func Check(kind Kind, desc string) error {
	if len(desc) > MaxDescriptorLength {
		return BadDescriptor.Describe(kind, desc)
	}
	if !checkModifiers(kind, desc) {
		return BadModifiers.Describe(kind, desc)
	}
	return nil
}

func checkModifiers(kind Kind, desc string) bool {
	var (
		d     descriptor
		names []string
	)
	switch kind {
	case KindMonitor:
		if strings.HasPrefix(desc, literalMarker) {
			return true
		}
		d, names = splitMonitor(desc), monitorAttrNames[:]
	case KindDesktop:
		if strings.HasPrefix(desc, literalMarker) {
			return true
		}
		d, names = splitDesktop(desc), desktopAttrNames[:]
	default:
		d, names = splitNode(desc), nodeAttrNames[:]
	}
	if d.hasContext && !checkModifiers(kind, d.context) {
		return false
	}
	if d.colon >= 0 {
		switch {
		case kind == KindDesktop:
			if !checkModifiers(KindMonitor, d.body[:d.colon]) {
				return false
			}
		case kind == KindNode && strings.HasPrefix(d.body, string(pathMarker)):
			if !checkModifiers(KindDesktop, d.body[1:d.colon]) {
				return false
			}
		}
	}
	reqs := make([]Requirement, len(names))
	return applyModifiers(d.modifiers, names, reqs)
}
