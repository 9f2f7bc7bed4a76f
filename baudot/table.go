package baudot

// ITA2 code points with a fixed meaning in both planes.
const (
	codeNull    byte = 0x00
	codeLF      byte = 0x02
	codeSpace   byte = 0x04
	codeCR      byte = 0x08
	codeFigures byte = 0x1B
	codeLetters byte = 0x1F

	codeMask byte = 0x1F
)

// Abstract characters of the shift codes.
const (
	charLetters = '['
	charFigures = ']'
)

// 0 marks an undefined code point.
var lettersPlane = [32]byte{
	'~', 'E', '\n', 'A', ' ', 'S', 'I', 'U',
	'\r', 'D', 'R', 'J', 'N', 'F', 'C', 'K',
	'T', 'Z', 'L', 'W', 'H', 'Y', 'P', 'Q',
	'O', 'B', 'G', charFigures, 'M', 'X', 'V', charLetters,
}

// International ITA2 figures. '@' is who-are-you, '%' is bell.
var figuresPlaneITA2 = [32]byte{
	'~', '3', '\n', '-', ' ', '\'', '8', '7',
	'\r', '@', '4', '%', ',', 0, ':', '(',
	'5', '+', ')', '2', 0, '6', '0', '1',
	'9', '?', 0, charFigures, '.', '/', '=', charLetters,
}

// US teletype figures.
var figuresPlaneUS = [32]byte{
	'~', '3', '\n', '-', ' ', '%', '8', '7',
	'\r', '$', '4', '\'', ',', '!', ':', '(',
	'5', '"', ')', '2', '#', '6', '0', '1',
	'9', '?', '&', charFigures, '.', '/', ';', charLetters,
}

type shiftState int

const (
	shiftUnknown shiftState = iota
	shiftLetters
	shiftFigures
)

// encodeEntry is the reverse lookup of one abstract character.
type encodeEntry struct {
	code  byte
	shift shiftState // shiftUnknown: valid in both planes
	valid bool
}

func buildEncodeTable(figures *[32]byte) [128]encodeEntry {
	var table [128]encodeEntry

	for code, ch := range figures {
		if ch != 0 {
			table[ch] = encodeEntry{code: byte(code), shift: shiftFigures, valid: true}
		}
	}

	for code, ch := range lettersPlane {
		if ch == 0 {
			continue
		}
		if entry := table[ch]; entry.valid && entry.code == byte(code) {
			table[ch] = encodeEntry{code: byte(code), shift: shiftUnknown, valid: true}
			continue
		}
		table[ch] = encodeEntry{code: byte(code), shift: shiftLetters, valid: true}
	}

	return table
}

var (
	encodeITA2 = buildEncodeTable(&figuresPlaneITA2)
	encodeUS   = buildEncodeTable(&figuresPlaneUS)
)
