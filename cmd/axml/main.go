// Command axml parses, dumps, and edits Android binary XML documents,
// either standalone or extracted from inside an APK.
package main

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smantinc/axml/axml"
	"github.com/smantinc/axml/internal/apkzip"
)

var (
	flagApk    bool
	flagEntry  string
	flagOutput string
)

func main() {
	root := &cobra.Command{
		Use:   "axml",
		Short: "Inspect and edit Android binary XML documents",
	}
	root.PersistentFlags().BoolVar(&flagApk, "apk", false, "treat INPUT as an APK and extract an entry from it")
	root.PersistentFlags().StringVar(&flagEntry, "entry", "AndroidManifest.xml", "entry name to extract when --apk is set")

	root.AddCommand(newDumpCmd())
	root.AddCommand(newBumpCmd())
	root.AddCommand(newInjectCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDocument(input string) (*axml.Document, error) {
	var data []byte
	if flagApk {
		zr, err := apkzip.Open(input, flagEntry)
		if err != nil {
			return nil, fmt.Errorf("opening apk: %w", err)
		}
		defer zr.Close()

		f, ok := zr.File[flagEntry]
		if !ok {
			return nil, fmt.Errorf("no %q entry in %s", flagEntry, input)
		}
		data, err = f.ReadAll(64 << 20)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", flagEntry, err)
		}
	} else {
		var err error
		data, err = os.ReadFile(input)
		if err != nil {
			return nil, err
		}
	}
	return axml.NewDocument(data)
}

func writeOutput(data []byte) error {
	if flagOutput == "" || flagOutput == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(flagOutput, data, 0o644)
}

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump INPUT",
		Short: "Print the document as indented textual XML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			return dumpDocument(os.Stdout, doc)
		},
	}
	return cmd
}

// dumpDocument renders the event stream as indented textual XML.
// Pending namespace declarations are hoisted onto the next start
// element as xmlns:prefix attributes.
func dumpDocument(w io.Writer, doc *axml.Document) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	var pendingNs []*axml.Namespace
	for doc.HasNext() {
		ev, err := doc.Next()
		if err != nil {
			return err
		}
		switch e := ev.(type) {
		case *axml.Namespace:
			if !e.IsEnd() {
				pendingNs = append(pendingNs, e)
			}
		case *axml.StartElement:
			name, _ := e.TagName()
			start := xml.StartElement{Name: xml.Name{Local: name}}
			for _, ns := range pendingNs {
				prefix, _ := ns.PrefixString()
				uri, _ := ns.URIString()
				start.Attr = append(start.Attr, xml.Attr{
					Name:  xml.Name{Local: "xmlns:" + prefix},
					Value: uri,
				})
			}
			pendingNs = nil
			for _, a := range e.Attributes {
				an, _ := a.NameString()
				if prefix := namespacePrefix(doc, a.Namespace); prefix != "" {
					an = prefix + ":" + an
				}
				start.Attr = append(start.Attr, xml.Attr{Name: xml.Name{Local: an}, Value: a.ValueString()})
			}
			if err := enc.EncodeToken(start); err != nil {
				return err
			}
		case *axml.EndElement:
			name, _ := e.TagName()
			if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
				return err
			}
		case *axml.CharData:
			if err := enc.EncodeToken(xml.CharData(e.Text())); err != nil {
				return err
			}
		}
	}
	return enc.Flush()
}

// namespacePrefix resolves attr's namespace ref to the prefix the
// document declared for it, if any.
func namespacePrefix(doc *axml.Document, ns axml.ResRef) string {
	uri, err := ns.Resolve(doc.Pool())
	if err != nil || uri == "" {
		return ""
	}
	return doc.Namespaces()[uri]
}

func newBumpCmd() *cobra.Command {
	var by int
	cmd := &cobra.Command{
		Use:   "bump INPUT",
		Short: "Increment android:versionCode on the manifest element",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}
			bumped := false
			for doc.HasNext() {
				ev, err := doc.Next()
				if err != nil {
					return err
				}
				e, ok := ev.(*axml.StartElement)
				if !ok {
					continue
				}
				name, _ := e.TagName()
				if name != "manifest" {
					continue
				}
				attr, ok := e.Attr("versionCode")
				if !ok {
					return fmt.Errorf("manifest element has no versionCode attribute")
				}
				attr.TypedValue.SetData(attr.TypedValue.Data() + uint32(by))
				bumped = true
				break
			}
			if !bumped {
				return fmt.Errorf("no manifest element found")
			}
			out, err := doc.ToBytes()
			if err != nil {
				return err
			}
			return writeOutput(out)
		},
	}
	cmd.Flags().IntVar(&by, "by", 1, "amount to add to versionCode")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (default stdout)")
	return cmd
}

func newInjectCmd() *cobra.Command {
	var targetTag, elemName string
	var attrFlags []string
	cmd := &cobra.Command{
		Use:   "inject INPUT",
		Short: "Insert a new element as the first child of the named tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := loadDocument(args[0])
			if err != nil {
				return err
			}

			attrs := map[string]any{}
			for _, kv := range attrFlags {
				parts := strings.SplitN(kv, "=", 2)
				if len(parts) != 2 {
					return fmt.Errorf("invalid --attr %q, want name=value", kv)
				}
				attrs[parts[0]] = coerceAttrValue(parts[1])
			}

			inserted := false
			for doc.HasNext() {
				ev, err := doc.Next()
				if err != nil {
					return err
				}
				e, ok := ev.(*axml.StartElement)
				if !ok {
					continue
				}
				name, _ := e.TagName()
				if name != targetTag {
					continue
				}
				ph, err := doc.Insert()
				if err != nil {
					return err
				}
				if err := ph.WriteStartElement(elemName, attrs, e.LineNumber); err != nil {
					return err
				}
				if err := ph.WriteEndElement(elemName, e.LineNumber); err != nil {
					return err
				}
				inserted = true
				break
			}
			if !inserted {
				return fmt.Errorf("no <%s> element found", targetTag)
			}

			out, err := doc.ToBytes()
			if err != nil {
				return err
			}
			return writeOutput(out)
		},
	}
	cmd.Flags().StringVar(&targetTag, "tag", "application", "tag to insert the new element under")
	cmd.Flags().StringVar(&elemName, "name", "meta-data", "tag name of the new element")
	cmd.Flags().StringArrayVar(&attrFlags, "attr", nil, "name=value attribute, repeatable")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "output path (default stdout)")
	return cmd
}

func coerceAttrValue(s string) any {
	if b, err := strconv.ParseBool(s); err == nil {
		return b
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	return s
}
