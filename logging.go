/*
 * Copyright 2021 National Library of Norway.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *       http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package warc

import "github.com/sirupsen/logrus"

// logger is the package-level logrus instance used for resynchronisation
// and truncation events. It defaults to logrus's standard logger, so it
// follows whatever configuration the embedding application gives logrus
// (at logrus's default Info level, Warn messages are printed to stderr);
// SetLogger lets a caller redirect it to their own instance.
var logger = logrus.StandardLogger()

// SetLogger replaces the logger used by ArchiveIterator and
// WarcFileWriter/WarcFileReader.
func SetLogger(l *logrus.Logger) {
	logger = l
}
