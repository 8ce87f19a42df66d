package help

const QuickstartYAML = `# html-page Quick Start

page_config: |
  # page.yaml
  prefixes:
    foaf: http://xmlns.com/foaf/0.1/
  rdfa:
    dc:title: Foo | Bar
    dc:language: en
    dc:creator: Alice
    dc:abstract: Stet clita kasd gubergren.
    http:cache-control: public, max-age=3600
    rel:home: {uri: /}
    dc:source:
      uri: https://example.com/original
      rdfa:
        dc:language: de
  resources:
    - alcamo.css                            # <link href rel="stylesheet">
    - [alcamo.json, manifest]               # <link type rel href>
    - [app.mjs, {defer: defer}]             # <script src type="module">
    - icons/favicon.png                     # <link type sizes href rel="icon">
    - {element: {tag: style, text: "p { margin: 0 }"}}
  htdocs:
    dir: htdocs
    url: /
  body_file: body.html
  output: htdocs/index.html

commands:
  render: |
    html-page render --config page.yaml

  render_layered: |
    html-page render --config site.yaml,en/page.yaml --out en/index.html

  render_many: |
    html-page render --config a.yaml --config b.yaml --workers 4

  watch: |
    html-page render --config page.yaml --watch

  import_meta: |
    html-page meta --from old/index.html --detect-language >> page.yaml

  compress: |
    html-page compress --dir htdocs --min-size 512

  history: |
    html-page builds --since 72h --limit 20
    html-page builds --since 2024-05-01
    html-page prune --before "May 1, 2024"
    html-page build 3f2a
    html-page build --config page.yaml

resource_rules:
  - "image/*: icon link, sizes from the image (any for svg)"
  - "text/css: stylesheet link"
  - "application/javascript: script, type=module for .mjs"
  - "anything else: link, needs a rel"
  - "A type attribute with a slash overrides the extension"
  - "Compressed variants (x.gz, x.svgz) are preferred when present"
  - "URLs carry ?m=<mtime as YYYYMMDDhhmmss UTC>"

metadata_rules:
  - "meta:charset is emitted first"
  - "dc:format sets the charset and the Content-Type, it is not emitted"
  - "tag: URIs are private and never emitted"
  - "rel:* and nodes with a table relation become <link rel=\"curie rel\">"

key_files:
  - "html-page.db next to the binary (build history)"
  - "<output> (rendered page, stdout when unset)"

error_behavior:
  - "Invalid config or resource: INVALID_INPUT, nothing written"
  - "Missing resource file: RESOURCE_NOT_FOUND"
  - "--error-page writes an error page with status 404/500 instead"
  - "Exit codes: 0=success, 1=partial failure, 2=complete failure"
`
