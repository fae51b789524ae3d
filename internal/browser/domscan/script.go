// File: internal/browser/domscan/script.go
package domscan

// The page-side half of the scanner lives in three function expressions. Each
// is invoked as (fn)(arg) with a JSON-encoded argument, so no page content is
// ever spliced into script text.
//
// collectScript walks the document and parks every candidate node in a fresh
// window.__webpilotCandidates array, returning plain facts about each node.
// commitScript receives the surviving candidate indexes and builds the
// id-keyed handle table window.__webpilotElements for the pass, plus the
// highlight overlay container. actionScript performs one interaction against
// a handle-table entry and reports a status object.

type collectArgs struct {
	Selector string `json:"selector"`
}

type collectReply struct {
	Candidates []Candidate `json:"candidates"`
	Viewport   Viewport    `json:"viewport"`
}

type commitArgs struct {
	Keep      []int `json:"keep"`
	Highlight bool  `json:"highlight"`
	Focus     int   `json:"focus"`
}

type commitReply struct {
	Count int `json:"count"`
}

// ActionRequest names one in-page interaction against an element id from the
// current pass. TargetID is only meaningful for the dragdrop op; Name selects
// the attribute for get_attribute; Checked drives the checkbox op.
type ActionRequest struct {
	ID       int    `json:"id"`
	Op       string `json:"op"`
	Text     string `json:"text,omitempty"`
	Value    string `json:"value,omitempty"`
	Name     string `json:"name,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	TargetID int    `json:"targetId,omitempty"`
}

// ActionReply is the page's verdict on one ActionRequest. Text and Value
// carry results for the read ops; Found distinguishes a missing attribute
// from an empty one.
type ActionReply struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
	Href    string `json:"href,omitempty"`
	Tag     string `json:"tag,omitempty"`
	Text    string `json:"text,omitempty"`
	Value   string `json:"value,omitempty"`
	Found   bool   `json:"found,omitempty"`
}

const collectScript = `(function(args) {
	const selector = args.selector;
	const seen = new Set();
	const candidates = [];
	window.__webpilotCandidates = [];

	function probeListeners(el) {
		const events = [];
		try {
			if (typeof getEventListeners === 'function') {
				const map = getEventListeners(el);
				for (const name in map) {
					if (map[name] && map[name].length > 0) events.push(name);
				}
				return events;
			}
		} catch (e) {}
		try {
			const names = ['click', 'mousedown', 'mouseup', 'touchstart', 'touchend', 'keydown', 'keyup'];
			for (const name of names) {
				if (typeof el['on' + name] === 'function') events.push(name);
			}
		} catch (e) {}
		return events;
	}

	const clickAttrs = ['onclick', 'ng-click', 'v-on:click', '@click', 'data-onclick', 'data-click'];

	function hasClickBinding(el) {
		if (typeof el.onclick === 'function') return true;
		for (const name of clickAttrs) {
			if (el.hasAttribute(name)) return true;
		}
		return false;
	}

	function facts(el, strategy) {
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		const attrs = {};
		for (const a of el.attributes) {
			attrs[a.name] = a.value;
		}
		let hasClick = false;
		try {
			hasClick = hasClickBinding(el);
		} catch (e) {}
		return {
			index: window.__webpilotCandidates.length,
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.value || '').trim(),
			attrs: attrs,
			rect: { left: rect.left, top: rect.top, width: rect.width, height: rect.height },
			style: {
				display: style.display,
				visibility: style.visibility,
				opacity: parseFloat(style.opacity)
			},
			cursor: style.cursor,
			hasClickHandler: hasClick,
			listenerEvents: probeListeners(el),
			strategy: strategy
		};
	}

	function admit(el, strategy) {
		if (seen.has(el)) return;
		seen.add(el);
		let f = null;
		try {
			f = facts(el, strategy);
		} catch (e) {
			// A node that throws during inspection is skipped, never fatal.
			return;
		}
		window.__webpilotCandidates.push(el);
		candidates.push(f);
	}

	function behavioralHint(el) {
		try {
			if (hasClickBinding(el)) return true;
			if (window.getComputedStyle(el).cursor === 'pointer') return true;
		} catch (e) {
			return false;
		}
		return probeListeners(el).some(function(name) {
			return name === 'click' || name === 'mousedown' || name === 'mouseup' ||
				name === 'touchstart' || name === 'touchend';
		});
	}

	for (const el of document.querySelectorAll(selector)) {
		admit(el, 'structural');
	}
	for (const el of document.querySelectorAll('*')) {
		if (seen.has(el)) continue;
		if (behavioralHint(el)) admit(el, 'behavioral');
	}

	return JSON.stringify({
		candidates: candidates,
		viewport: { width: window.innerWidth, height: window.innerHeight }
	});
})`

const commitScript = `(function(args) {
	const palette = [
		'#FF5D5D', '#5DA9FF', '#6BCB77', '#FFD93D',
		'#B980F0', '#FF9F45', '#4DD4C6', '#F473B9'
	];
	const candidates = window.__webpilotCandidates || [];
	window.__webpilotElements = {};

	const old = document.getElementById('__webpilot_overlay');
	if (old) old.remove();

	let container = null;
	if (args.highlight) {
		container = document.createElement('div');
		container.id = '__webpilot_overlay';
		container.style.cssText = 'position:fixed;top:0;left:0;width:0;height:0;pointer-events:none;z-index:2147483647;';
		document.body.appendChild(container);
	}

	let count = 0;
	for (let id = 0; id < args.keep.length; id++) {
		const el = candidates[args.keep[id]];
		if (!el) continue;
		window.__webpilotElements[id] = el;
		count++;
		if (!container) continue;
		if (args.focus >= 0 && args.focus !== id) continue;
		const rect = el.getBoundingClientRect();
		const color = palette[id % palette.length];
		const box = document.createElement('div');
		box.style.cssText = [
			'position:fixed',
			'left:' + rect.left + 'px',
			'top:' + rect.top + 'px',
			'width:' + rect.width + 'px',
			'height:' + rect.height + 'px',
			'border:2px solid ' + color,
			'box-sizing:border-box',
			'pointer-events:none'
		].join(';');
		const label = document.createElement('span');
		label.textContent = String(id);
		label.style.cssText = 'position:absolute;top:-2px;left:-2px;background:' + color +
			';color:#fff;font:10px/1.4 monospace;padding:0 3px;';
		box.appendChild(label);
		container.appendChild(box);
	}

	window.__webpilotCandidates = [];
	return JSON.stringify({ count: count });
})`

const actionScript = `(function(req) {
	const table = window.__webpilotElements || {};
	const el = table[req.id];
	if (!el) {
		return JSON.stringify({ ok: false, message: 'no element with id ' + req.id + ' in the current pass' });
	}
	if (!el.isConnected) {
		return JSON.stringify({ ok: false, message: 'element ' + req.id + ' is no longer attached to the document' });
	}
	try {
		switch (req.op) {
		case 'click': {
			const tag = el.tagName.toLowerCase();
			const href = tag === 'a' ? (el.href || '') : '';
			el.scrollIntoView({ block: 'center', inline: 'center' });
			el.click();
			return JSON.stringify({ ok: true, tag: tag, href: href });
		}
		case 'input': {
			el.focus();
			const tag = el.tagName.toLowerCase();
			if (tag === 'input' || tag === 'textarea') {
				el.value = req.text;
			} else if (el.isContentEditable) {
				el.textContent = req.text;
			} else {
				return JSON.stringify({ ok: false, message: 'element ' + req.id + ' does not accept text input' });
			}
			el.dispatchEvent(new Event('input', { bubbles: true }));
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return JSON.stringify({ ok: true, tag: tag });
		}
		case 'select': {
			if (el.tagName.toLowerCase() !== 'select') {
				return JSON.stringify({ ok: false, message: 'element ' + req.id + ' is not a select' });
			}
			const byValue = req.value !== undefined && req.value !== '';
			const wanted = byValue ? req.value : req.text;
			let matched = false;
			for (const opt of el.options) {
				if (byValue ? opt.value === wanted : opt.text.trim() === wanted) {
					el.value = opt.value;
					matched = true;
					break;
				}
			}
			if (!matched) {
				const mode = byValue ? 'value' : 'text';
				return JSON.stringify({ ok: false, message: 'no option with ' + mode + ' ' + JSON.stringify(wanted) });
			}
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return JSON.stringify({ ok: true });
		}
		case 'dblclick': {
			el.scrollIntoView({ block: 'center', inline: 'center' });
			el.dispatchEvent(new MouseEvent('mousedown', { bubbles: true }));
			el.dispatchEvent(new MouseEvent('mouseup', { bubbles: true }));
			el.click();
			el.dispatchEvent(new MouseEvent('dblclick', { bubbles: true }));
			return JSON.stringify({ ok: true });
		}
		case 'rightclick': {
			el.scrollIntoView({ block: 'center', inline: 'center' });
			el.dispatchEvent(new MouseEvent('contextmenu', { bubbles: true, button: 2 }));
			return JSON.stringify({ ok: true });
		}
		case 'hover': {
			el.scrollIntoView({ block: 'center', inline: 'center' });
			el.dispatchEvent(new MouseEvent('mouseover', { bubbles: true }));
			el.dispatchEvent(new MouseEvent('mouseenter', { bubbles: false }));
			el.dispatchEvent(new MouseEvent('mousemove', { bubbles: true }));
			return JSON.stringify({ ok: true });
		}
		case 'checkbox': {
			const tag = el.tagName.toLowerCase();
			const type = (el.getAttribute('type') || '').toLowerCase();
			if (tag !== 'input' || (type !== 'checkbox' && type !== 'radio')) {
				return JSON.stringify({ ok: false, message: 'element ' + req.id + ' is not a checkbox or radio input' });
			}
			if (el.checked !== req.checked) {
				el.checked = req.checked;
				el.dispatchEvent(new Event('change', { bubbles: true }));
			}
			return JSON.stringify({ ok: true });
		}
		case 'get_text': {
			return JSON.stringify({ ok: true, text: (el.innerText || el.value || '').trim() });
		}
		case 'get_attribute': {
			const attr = el.getAttribute(req.name);
			if (attr === null) {
				return JSON.stringify({ ok: true, found: false });
			}
			return JSON.stringify({ ok: true, found: true, value: attr });
		}
		case 'dragdrop': {
			const dst = table[req.targetId];
			if (!dst) {
				return JSON.stringify({ ok: false, message: 'no element with id ' + req.targetId + ' in the current pass' });
			}
			const dt = new DataTransfer();
			el.dispatchEvent(new DragEvent('dragstart', { bubbles: true, dataTransfer: dt }));
			dst.dispatchEvent(new DragEvent('dragenter', { bubbles: true, dataTransfer: dt }));
			dst.dispatchEvent(new DragEvent('dragover', { bubbles: true, dataTransfer: dt }));
			dst.dispatchEvent(new DragEvent('drop', { bubbles: true, dataTransfer: dt }));
			el.dispatchEvent(new DragEvent('dragend', { bubbles: true, dataTransfer: dt }));
			return JSON.stringify({ ok: true });
		}
		case 'scroll_into_view': {
			el.scrollIntoView({ block: 'center', inline: 'center' });
			return JSON.stringify({ ok: true });
		}
		default:
			return JSON.stringify({ ok: false, message: 'unknown operation ' + JSON.stringify(req.op) });
		}
	} catch (e) {
		return JSON.stringify({ ok: false, message: String(e && e.message || e) });
	}
})`

// scrollScript scrolls the window by signed pixel deltas, or to the top or
// bottom of the document when the named edge is set.
const scrollScript = `(function(req) {
	try {
		if (req.edge === 'top') {
			window.scrollTo({ top: 0, behavior: 'instant' });
		} else if (req.edge === 'bottom') {
			window.scrollTo({ top: document.body.scrollHeight, behavior: 'instant' });
		} else {
			window.scrollBy({ left: req.x, top: req.y, behavior: 'instant' });
		}
		return JSON.stringify({ ok: true });
	} catch (e) {
		return JSON.stringify({ ok: false, message: String(e && e.message || e) });
	}
})`

// resetScript drops the handle table, the parked candidates and the overlay
// container. Used when a pass is invalidated by navigation.
const resetScript = `(function() {
	window.__webpilotElements = {};
	window.__webpilotCandidates = [];
	const old = document.getElementById('__webpilot_overlay');
	if (old) old.remove();
	return JSON.stringify({ ok: true });
})`
