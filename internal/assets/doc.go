// Package assets provides the CSS styles and the HTML page template used to
// turn a rendered fragment into a standalone document.
//
// # Loaders
//
//	AssetLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in styles and page template (go:embed)
//	    ├── FilesystemLoader  - user directory on disk
//	    └── AssetResolver     - filesystem first, embedded as fallback
//
// A user directory only needs the files it overrides:
//
//	{basePath}/
//	├── styles/
//	│   └── {name}.css
//	└── templates/
//	    └── page.html
//
// Asset names are validated before use, and FilesystemLoader resolves
// symlinks and refuses paths that leave basePath.
package assets
