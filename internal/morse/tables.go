package morse

// Pictograms, fixed words and digits, in reference order.
var referenceEntries = []Entry{
	{Symbol: "😊", Code: "...--."},
	{Symbol: "😢", Code: "..--.."},
	{Symbol: "❤️", Code: ".-.-."},
	{Symbol: "👍", Code: ".--.-"},
	{Symbol: "🙏", Code: "--..-."},
	{Symbol: "😂", Code: ".-..-."},
	{Symbol: "🎉", Code: "-.-.-."},
	{Symbol: "🔥", Code: "--..--"},

	{Symbol: "YES", Code: "-.-- . ..."},
	{Symbol: "NO", Code: "-. ---"},
	{Symbol: "HELP", Code: ".... . .-.. .--."},
	{Symbol: "OK", Code: "--- -.-"},
	{Symbol: "STOP", Code: "... - --- .--."},
	{Symbol: "PLEASE", Code: ".--. .-.. . .- ... ."},
	{Symbol: "THANKS", Code: "- .... .- -. -.- ..."},
	{Symbol: "SORRY", Code: "... --- .-. .-. -.--"},
	{Symbol: "HI", Code: ".... .."},
	{Symbol: "BYE", Code: "-... -.-- ."},

	{Symbol: "0", Code: "-----"},
	{Symbol: "1", Code: ".----"},
	{Symbol: "2", Code: "..---"},
	{Symbol: "3", Code: "...--"},
	{Symbol: "4", Code: "....-"},
	{Symbol: "5", Code: "....."},
	{Symbol: "6", Code: "-...."},
	{Symbol: "7", Code: "--..."},
	{Symbol: "8", Code: "---.."},
	{Symbol: "9", Code: "----."},
}

// ITU letters. Every code here has at most four elements and every reference code at least
// five, so the two layers never share a concatenated code.
var letterEntries = []Entry{
	{Symbol: "A", Code: ".-"},
	{Symbol: "B", Code: "-..."},
	{Symbol: "C", Code: "-.-."},
	{Symbol: "D", Code: "-.."},
	{Symbol: "E", Code: "."},
	{Symbol: "F", Code: "..-."},
	{Symbol: "G", Code: "--."},
	{Symbol: "H", Code: "...."},
	{Symbol: "I", Code: ".."},
	{Symbol: "J", Code: ".---"},
	{Symbol: "K", Code: "-.-"},
	{Symbol: "L", Code: ".-.."},
	{Symbol: "M", Code: "--"},
	{Symbol: "N", Code: "-."},
	{Symbol: "O", Code: "---"},
	{Symbol: "P", Code: ".--."},
	{Symbol: "Q", Code: "--.-"},
	{Symbol: "R", Code: ".-."},
	{Symbol: "S", Code: "..."},
	{Symbol: "T", Code: "-"},
	{Symbol: "U", Code: "..-"},
	{Symbol: "V", Code: "...-"},
	{Symbol: "W", Code: ".--"},
	{Symbol: "X", Code: "-..-"},
	{Symbol: "Y", Code: "-.--"},
	{Symbol: "Z", Code: "--.."},
}

// Reference returns the table of pictograms, fixed words and digits only.
func Reference() *Table {
	return mustNew(referenceEntries)
}

// Default returns the ITU letters followed by the reference entries.
func Default() *Table {
	all := make([]Entry, 0, len(letterEntries)+len(referenceEntries))
	all = append(all, letterEntries...)
	all = append(all, referenceEntries...)
	return mustNew(all)
}

func mustNew(entries []Entry) *Table {
	t, err := New(entries...)
	if err != nil {
		panic(err)
	}
	return t
}
