package anki

// Duplicate scopes understood by addNote.
const (
	DuplicateScopeDeck       = "deck"
	DuplicateScopeCollection = "collection"
)

// Note is the payload of an addNote call.
type Note struct {
	DeckName  string            `json:"deckName"`
	ModelName string            `json:"modelName"`
	Fields    map[string]string `json:"fields"`
	Options   NoteOptions       `json:"options"`
	Tags      []string          `json:"tags"`
}

// NoteOptions controls duplicate detection.
type NoteOptions struct {
	AllowDuplicate        bool                  `json:"allowDuplicate"`
	DuplicateScope        string                `json:"duplicateScope"`
	DuplicateScopeOptions DuplicateScopeOptions `json:"duplicateScopeOptions"`
}

// DuplicateScopeOptions narrows where duplicates are looked for.
type DuplicateScopeOptions struct {
	DeckName       string `json:"deckName"`
	CheckChildren  bool   `json:"checkChildren"`
	CheckAllModels bool   `json:"checkAllModels"`
}

// DeckScopedOptions rejects duplicates within deck only, ignoring subdecks
// and other note types.
func DeckScopedOptions(deck string) NoteOptions {
	return NoteOptions{
		AllowDuplicate: false,
		DuplicateScope: DuplicateScopeDeck,
		DuplicateScopeOptions: DuplicateScopeOptions{
			DeckName:       deck,
			CheckChildren:  false,
			CheckAllModels: false,
		},
	}
}
