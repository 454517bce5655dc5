/*
 * Copyright (C) 2025 Google LLC
 *
 * Licensed under the Apache License, Version 2.0 (the "License"); you may not
 * use this file except in compliance with the License. You may obtain a copy of
 * the License at
 *
 *   http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS, WITHOUT
 * WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied. See the
 * License for the specific language governing permissions and limitations under
 * the License.
 */

package repository

import "fmt"

// Pageable requests the page with zero based number Page of Size rows. A PageState taken from a
// previous Slice continues right after that slice and takes precedence over Page.
type Pageable struct {
	Page      int
	Size      int
	PageState []byte
}

func PageRequest(page, size int) Pageable {
	return Pageable{Page: page, Size: size}
}

func (p Pageable) validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("page size must be positive, got %d", p.Size)
	}
	if p.Page < 0 {
		return fmt.Errorf("page number must not be negative, got %d", p.Page)
	}
	return nil
}

// Slice is a page of entities that knows whether another page follows, but not the total count.
type Slice[T any] struct {
	Content  []T
	Pageable Pageable
	HasNext  bool
	// PageState resumes reading after this slice. It is only set when the slice ended on a driver
	// page boundary.
	PageState []byte
}

// NextPageable requests the slice following s.
func (s *Slice[T]) NextPageable() Pageable {
	return Pageable{Page: s.Pageable.Page + 1, Size: s.Pageable.Size, PageState: s.PageState}
}

func (s *Slice[T]) NumberOfElements() int {
	return len(s.Content)
}
