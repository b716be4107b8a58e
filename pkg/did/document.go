package did

import "encoding/json"

// ContextV1 is the JSON-LD context every document carries.
const ContextV1 = "https://www.w3.org/ns/did/v1"

// VerificationMethod is one entry in a document's verificationMethod list.
type VerificationMethod struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	Controller      string `json:"controller"`
	PublicKeyHex    string `json:"publicKeyHex,omitempty"`
	PublicKeyBase58 string `json:"publicKeyBase58,omitempty"`
}

// Service is one entry in a document's service list.
type Service struct {
	ID              string `json:"id"`
	Type            string `json:"type"`
	ServiceEndpoint string `json:"serviceEndpoint"`
}

// Document is a W3C-shaped identity document.
type Document struct {
	Context            []string             `json:"@context"`
	ID                 string               `json:"id"`
	VerificationMethod []VerificationMethod `json:"verificationMethod,omitempty"`
	Authentication     []string             `json:"authentication,omitempty"`
	Service            []Service            `json:"service,omitempty"`
}

// NewDocument builds the minimal document for the given identifier.
func NewDocument(id string) *Document {
	return &Document{
		Context: []string{ContextV1},
		ID:      id,
	}
}

// GenerateDocument mints a fresh DID and builds its initial document: one
// key1 verification method registered for authentication. The key material
// is a placeholder; didlink does not construct cryptographic material.
func GenerateDocument() *Document {
	id := Generate()
	doc := NewDocument(id.ID())
	keyID := id.ID() + "#key1"
	doc.AddVerificationMethod(VerificationMethod{
		ID:              keyID,
		Type:            "Ed25519VerificationKey2020",
		Controller:      id.ID(),
		PublicKeyBase58: "SigningKey",
	})
	doc.AddAuthentication(keyID)
	return doc
}

// AddVerificationMethod appends a verification method.
func (d *Document) AddVerificationMethod(vm VerificationMethod) {
	d.VerificationMethod = append(d.VerificationMethod, vm)
}

// AddAuthentication appends an authentication reference.
func (d *Document) AddAuthentication(id string) {
	d.Authentication = append(d.Authentication, id)
}

// AddService appends a service entry.
func (d *Document) AddService(s Service) {
	d.Service = append(d.Service, s)
}

// JSON returns the pretty-printed JSON form of the document.
func (d *Document) JSON() (string, error) {
	b, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
