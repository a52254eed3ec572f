/*
 * Copyright (C) 2024 IBM, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 *
 */

package main

import (
	"bytes"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/guardio/guardio/pkg/api"
)

func indent(level int) string {
	return strings.Repeat(" ", 4*level)
}

// writeDoc prints the documented fields of t. Fields documented with a "#" title open a new section.
func writeDoc(out io.Writer, t reflect.Type, level int) {
	switch t.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map:
		writeDoc(out, t.Elem(), level)
		return
	case reflect.Struct:
	default:
		return
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		doc := field.Tag.Get(api.TagDoc)
		if doc == "" {
			continue
		}
		name := strings.Split(field.Tag.Get(api.TagYaml), ",")[0]
		if strings.HasPrefix(doc, "#") {
			fmt.Fprintf(out, "\n%s\n<pre>\n%s%s:\n", doc, indent(level), name)
			writeDoc(out, field.Type, level+1)
			fmt.Fprint(out, "</pre>\n")
			continue
		}
		fmt.Fprintf(out, "%s%s: %s\n", indent(level), name, doc)
		writeDoc(out, field.Type, level+1)
	}
}

func main() {
	output := new(bytes.Buffer)
	writeDoc(output, reflect.TypeOf(api.API{}), 0)
	fmt.Print(output)
}
