package lint

// ecmaGlobals are the ECMAScript built-ins.
var ecmaGlobals = []string{
	"Array", "ArrayBuffer", "Atomics", "BigInt", "BigInt64Array", "BigUint64Array",
	"Boolean", "DataView", "Date", "Error", "EvalError", "FinalizationRegistry",
	"Float32Array", "Float64Array", "Function", "Infinity", "Int16Array", "Int32Array",
	"Int8Array", "Intl", "JSON", "Map", "Math", "NaN", "Number", "Object", "Promise",
	"Proxy", "RangeError", "ReferenceError", "Reflect", "RegExp", "Set",
	"SharedArrayBuffer", "String", "Symbol", "SyntaxError", "TypeError", "URIError",
	"Uint16Array", "Uint32Array", "Uint8Array", "Uint8ClampedArray", "WeakMap",
	"WeakRef", "WeakSet", "arguments", "decodeURI", "decodeURIComponent",
	"encodeURI", "encodeURIComponent", "escape", "eval", "globalThis", "isFinite",
	"isNaN", "parseFloat", "parseInt", "undefined", "unescape",
}

// browserGlobals are the window-level names available to extension pages.
var browserGlobals = []string{
	"AbortController", "Audio", "Blob", "BroadcastChannel", "CSS", "CustomEvent",
	"DOMParser", "Document", "Element", "Event", "EventSource", "EventTarget",
	"File", "FileReader", "FormData", "HTMLElement", "Headers", "History", "Image",
	"IntersectionObserver", "KeyboardEvent", "Location", "MessageChannel",
	"MouseEvent", "MutationObserver", "Node", "NodeList", "Notification",
	"Option", "Request", "ResizeObserver", "Response", "TextDecoder",
	"TextEncoder", "URL", "URLSearchParams", "WebSocket", "Worker",
	"XMLHttpRequest", "alert", "atob", "btoa", "cancelAnimationFrame",
	"clearInterval", "clearTimeout", "close", "confirm", "console", "crypto",
	"customElements", "document", "fetch", "getComputedStyle", "history",
	"indexedDB", "localStorage", "location", "matchMedia", "navigator",
	"open", "performance", "postMessage", "prompt", "queueMicrotask",
	"requestAnimationFrame", "requestIdleCallback", "screen", "self",
	"sessionStorage", "setInterval", "setTimeout", "structuredClone", "top",
	"window",
}

// extensionGlobals are the extension API namespaces.
var extensionGlobals = []string{"chrome", "browser"}

func knownGlobals(extra []string) map[string]bool {
	known := make(map[string]bool, len(ecmaGlobals)+len(browserGlobals)+len(extra)+2)
	for _, list := range [][]string{ecmaGlobals, browserGlobals, extensionGlobals, extra} {
		for _, name := range list {
			known[name] = true
		}
	}
	return known
}
