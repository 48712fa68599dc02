package protocol

// WorkspaceFolder is one root folder advertised to the server during
// initialize, alongside the legacy RootPath/RootURI fields older servers
// still expect.
type WorkspaceFolder struct {
	URI  DocumentURI `json:"uri"`
	Name string      `json:"name"`
}

// TextDocumentClientCapabilities is the subset of client capabilities the
// host actually exercises: hierarchical document symbols and the set of
// symbol kinds it is prepared to receive.
type TextDocumentClientCapabilities struct {
	DocumentSymbol struct {
		HierarchicalDocumentSymbolSupport bool `json:"hierarchicalDocumentSymbolSupport"`
		SymbolKind                        struct {
			ValueSet []SymbolKind `json:"valueSet"`
		} `json:"symbolKind"`
	} `json:"documentSymbol"`
	Definition struct {
		LinkSupport bool `json:"linkSupport"`
	} `json:"definition"`
	PublishDiagnostics struct {
		RelatedInformation bool `json:"relatedInformation"`
	} `json:"publishDiagnostics"`
}

// WorkspaceClientCapabilities advertises workspace/symbol and
// workspace/executeCommand interest.
type WorkspaceClientCapabilities struct {
	Symbol struct {
		SymbolKind struct {
			ValueSet []SymbolKind `json:"valueSet"`
		} `json:"symbolKind"`
	} `json:"symbol"`
	WorkspaceFolders bool `json:"workspaceFolders"`
}

// GeneralClientCapabilities carries the position encoding negotiation;
// the host always advertises utf-16, the LSP default, so server-side
// position offsets agree with the host's own UTF-16 column arithmetic.
type GeneralClientCapabilities struct {
	PositionEncodings []string `json:"positionEncodings"`
}

// ClientCapabilities is the capabilities object the host sends with every
// initialize request.
type ClientCapabilities struct {
	Workspace    WorkspaceClientCapabilities    `json:"workspace"`
	TextDocument TextDocumentClientCapabilities `json:"textDocument"`
	General      GeneralClientCapabilities      `json:"general"`
}

// DefaultClientCapabilities builds the capability set advertised by every
// host-initiated session: hierarchical document symbols, definition link
// support, workspace symbol/folder support, and utf-16 position encoding.
func DefaultClientCapabilities() ClientCapabilities {
	var caps ClientCapabilities
	caps.TextDocument.DocumentSymbol.HierarchicalDocumentSymbolSupport = true
	for k := SKFile; k <= SKTypeParameter; k++ {
		caps.TextDocument.DocumentSymbol.SymbolKind.ValueSet = append(caps.TextDocument.DocumentSymbol.SymbolKind.ValueSet, k)
		caps.Workspace.Symbol.SymbolKind.ValueSet = append(caps.Workspace.Symbol.SymbolKind.ValueSet, k)
	}
	caps.TextDocument.Definition.LinkSupport = true
	caps.TextDocument.PublishDiagnostics.RelatedInformation = true
	caps.Workspace.WorkspaceFolders = true
	caps.General.PositionEncodings = []string{"utf-16"}
	return caps
}

// InitializeParams is the body of the initialize request.
type InitializeParams struct {
	ProcessID             int                 `json:"processId"`
	RootPath              string              `json:"rootPath,omitempty"`
	RootURI               DocumentURI         `json:"rootUri"`
	WorkspaceFolders      []WorkspaceFolder   `json:"workspaceFolders,omitempty"`
	InitializationOptions interface{}         `json:"initializationOptions,omitempty"`
	Capabilities          ClientCapabilities  `json:"capabilities"`
	Trace                 string              `json:"trace,omitempty"`
}

// ServerCapabilities is the (loosely typed) subset of the initialize
// response the host inspects: mainly whether workspace/symbol and
// workspace/executeCommand are actually offered.
type ServerCapabilities struct {
	DocumentSymbolProvider  bool                   `json:"documentSymbolProvider"`
	DefinitionProvider      bool                   `json:"definitionProvider"`
	ReferencesProvider      bool                   `json:"referencesProvider"`
	WorkspaceSymbolProvider bool                   `json:"workspaceSymbolProvider"`
	ExecuteCommandProvider  map[string]interface{} `json:"executeCommandProvider,omitempty"`
}

// InitializeResult is the response body of the initialize request.
type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
}

// RegistrationParams is the body of a client/registerCapability request
// issued by the server; the host only inspects Registrations[i].Method to
// learn whether workspace/executeCommand was registered dynamically.
type RegistrationParams struct {
	Registrations []Registration `json:"registrations"`
}

// Registration is one entry of a RegistrationParams request.
type Registration struct {
	ID     string      `json:"id"`
	Method string      `json:"method"`
	Options interface{} `json:"registerOptions,omitempty"`
}
